// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"time"

	"github.com/google/wire"

	"conference-rag/internal/application/auth"
	"conference-rag/internal/application/readiness"
	"conference-rag/internal/application/search"
	"conference-rag/internal/application/setup"
	"conference-rag/internal/config"
	"conference-rag/internal/domain/repository"
	"conference-rag/internal/infrastructure/persistence/memory"
	"conference-rag/internal/infrastructure/persistence/postgres"
	"conference-rag/internal/infrastructure/persistence/redis"
	"conference-rag/internal/infrastructure/supabase"
	"conference-rag/internal/interfaces/http/handler"
	"conference-rag/internal/interfaces/http/middleware"
	"conference-rag/internal/interfaces/http/router"
	"conference-rag/pkg/logger"
)

// rateLimiterIdleTTL 内存限流桶的闲置回收时间
const rateLimiterIdleTTL = 10 * time.Minute

// DataLayer 数据层依赖容器
// 后端未配置时 Supabase 为 nil；Redis/Postgres 仅在启用时非 nil
type DataLayer struct {
	Supabase *supabase.Client
	Redis    *redis.Client
	Postgres *postgres.Client
}

// App 应用依赖容器
type App struct {
	Router      *router.Router
	Diagnostics *setup.Diagnostics
}

// Doctor 命令行诊断依赖容器
type Doctor struct {
	Diagnostics *setup.Diagnostics
	Prober      *readiness.Prober
	Pipeline    *search.Pipeline
}

// InfraSet 基础设施依赖集合
var InfraSet = wire.NewSet(
	ProvideSupabaseClient,
	ProvideRedisClient,
	ProvidePostgresClient,
	wire.Struct(new(DataLayer), "*"),
	ProvideCorpusRepository,
	ProvideModelFunctions,
	ProvideIdentityProvider,
)

// ApplicationSet 应用层依赖集合
var ApplicationSet = wire.NewSet(
	ProvideReadinessProber,
	search.NewPipeline,
	ProvideDiagnostics,
)

// RouterSet HTTP 层依赖集合
var RouterSet = wire.NewSet(
	ProvideSessionStore,
	ProvideRateLimiter,
	ProvideAuthController,
	router.SessionCookie,
	handler.NewSessions,
	ProvidePageHandler,
	handler.NewAuthHandler,
	handler.NewSearchHandler,
	ProvideSetupHandler,
	ProvideHealthHandler,
	router.NewHandlers,
	router.New,
)

// ProvideSupabaseClient 提供 Supabase 客户端，凭据无效时为 nil
func ProvideSupabaseClient(cfg *config.Config) *supabase.Client {
	return supabase.NewFromConfig(&cfg.Supabase)
}

// ProvideRedisClient 提供 Redis 客户端（未启用时为 nil）
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error(ctx, "failed to close redis client", err)
		}
	}
	return client, cleanup, nil
}

// ProvidePostgresClient 提供 PostgreSQL 客户端（仅直连语料时创建）
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if cfg.Corpus.Backend != config.CorpusBackendPostgres {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error(ctx, "failed to close postgres client", err)
		}
	}
	return client, cleanup, nil
}

// ProvideCorpusRepository 按 corpus.backend 选择语料仓储
// 后端未配置时返回 nil 接口，检索管线据此报告不可用
func ProvideCorpusRepository(data *DataLayer) repository.CorpusRepository {
	if data.Supabase == nil {
		return nil
	}
	if data.Postgres != nil {
		opts := data.Supabase.Options()
		return postgres.NewCorpusRepository(data.Postgres, opts.SentenceTable, opts.MatchFunction)
	}
	return supabase.NewCorpusRepository(data.Supabase)
}

// ProvideModelFunctions 提供 Edge Functions 调用
func ProvideModelFunctions(data *DataLayer) repository.ModelFunctions {
	if data.Supabase == nil {
		return nil
	}
	return data.Supabase
}

// ProvideIdentityProvider 提供身份服务
func ProvideIdentityProvider(data *DataLayer) repository.IdentityProvider {
	if data.Supabase == nil {
		return nil
	}
	return data.Supabase
}

// ProvideReadinessProber 提供可用性探测器
func ProvideReadinessProber(cfg *config.Config, corpus repository.CorpusRepository, functions repository.ModelFunctions) *readiness.Prober {
	return readiness.NewProber(corpus, functions, cfg.Supabase.Timeout)
}

// ProvideDiagnostics 提供配置诊断
func ProvideDiagnostics(cfg *config.Config, data *DataLayer) *setup.Diagnostics {
	var health setup.HealthChecker
	if data.Supabase != nil {
		health = data.Supabase
	}
	return setup.NewDiagnostics(&cfg.Supabase, health, cfg.App.PublicURL)
}

// ProvideSessionStore 提供会话存储；启用 Redis 时会话可跨实例共享
func ProvideSessionStore(ctx context.Context, cfg *config.Config, data *DataLayer) repository.SessionStore {
	if data.Redis != nil {
		return redis.NewSessionStore(data.Redis, cfg.Session.KeyPrefix)
	}
	logger.Warn(ctx, "redis disabled, sessions are kept in process memory")
	return memory.NewSessionStore(cfg.Session.TTL)
}

// ProvideRateLimiter 提供限流器（未启用限流时为 nil）
func ProvideRateLimiter(cfg *config.Config, data *DataLayer) middleware.RateLimiter {
	if !cfg.Security.RateLimit.Enabled {
		return nil
	}
	if data.Redis != nil {
		return redis.NewRateLimiter(data.Redis)
	}
	return memory.NewRateLimiter(cfg.Security.RateLimit.Burst, rateLimiterIdleTTL)
}

// ProvideAuthController 提供会话控制器
func ProvideAuthController(cfg *config.Config, identity repository.IdentityProvider, store repository.SessionStore, prober *readiness.Prober) *auth.Controller {
	return auth.NewController(identity, store, prober, auth.Options{
		RedirectURL:  cfg.App.PublicURL,
		SessionTTL:   cfg.Session.TTL,
		ReadinessTTL: cfg.Session.ReadinessTTL,
	})
}

// ProvidePageHandler 提供页面处理器
func ProvidePageHandler(cfg *config.Config, sessions *handler.Sessions, controller *auth.Controller, pipeline *search.Pipeline, diag *setup.Diagnostics) *handler.PageHandler {
	return handler.NewPageHandler(sessions, controller, pipeline, diag, cfg.App.Name)
}

// ProvideSetupHandler 提供配置引导处理器
func ProvideSetupHandler(cfg *config.Config) *handler.SetupHandler {
	return handler.NewSetupHandler(cfg.Session.Secure)
}

// ProvideHealthHandler 提供健康检查处理器
// Redis 与直连数据库为必需依赖；Supabase 不可达只标记为 degraded
func ProvideHealthHandler(cfg *config.Config, data *DataLayer) *handler.HealthHandler {
	var checks []handler.HealthCheck
	if data.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Required: true, Check: data.Redis.HealthCheck})
	}
	if data.Postgres != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Required: true, Check: data.Postgres.HealthCheck})
	}
	if data.Supabase != nil {
		checks = append(checks, handler.HealthCheck{Name: "supabase", Check: data.Supabase.Health})
	}
	return handler.NewHealthHandler(cfg.App.Version, checks...)
}
