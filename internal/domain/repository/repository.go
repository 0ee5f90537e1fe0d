// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"conference-rag/internal/domain/entity"
)

// CorpusRepository 演讲句子语料（只读）
type CorpusRepository interface {
	// CountSentences 统计句子总数
	CountSentences(ctx context.Context) (int64, error)

	// HasEmbeddings 是否至少有一条句子带向量
	HasEmbeddings(ctx context.Context) (bool, error)

	// SearchText 大小写不敏感的子串匹配
	SearchText(ctx context.Context, query string, limit int) ([]*entity.Sentence, error)

	// MatchSentences 向量相似度检索
	MatchSentences(ctx context.Context, embedding []float32, threshold float64, count int) ([]*entity.Sentence, error)
}

// ModelFunctions 后端部署的 embedding 与回答生成函数
type ModelFunctions interface {
	// Embed 计算问题的向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// GenerateAnswer 基于上下文生成回答
	GenerateAnswer(ctx context.Context, question string, talks []entity.ContextTalk) (string, error)

	// ProbeEmbed 以占位问题调用 embedding 函数，返回 HTTP 状态码
	ProbeEmbed(ctx context.Context) (int, error)

	// ProbeGenerate 以占位问题与空上下文调用生成函数，返回 HTTP 状态码
	ProbeGenerate(ctx context.Context) (int, error)
}

// IdentityProvider 无密码登录的身份服务
type IdentityProvider interface {
	// SendMagicLink 发送 magic link，redirectTo 为回调地址
	SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error

	// ExchangeCode 用回调携带的 code 与 PKCE verifier 换取会话
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*entity.AuthSession, error)

	// VerifyTokenHash 校验邮件模板中的 token_hash
	VerifyTokenHash(ctx context.Context, tokenHash, verifyType string) (*entity.AuthSession, error)

	// Refresh 刷新会话
	Refresh(ctx context.Context, refreshToken string) (*entity.AuthSession, error)

	// GetUser 用访问令牌查询用户
	GetUser(ctx context.Context, accessToken string) (*entity.User, error)

	// SignOut 注销服务端会话
	SignOut(ctx context.Context, accessToken string) error

	// Health 身份服务连通性
	Health(ctx context.Context) error
}

// SessionStore 浏览器会话存储
type SessionStore interface {
	// Get 读取会话，不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Save 写入会话并刷新过期时间
	Save(ctx context.Context, session *entity.Session, ttl time.Duration) error

	// Delete 删除会话
	Delete(ctx context.Context, id string) error
}

type accessTokenKey struct{}

// WithAccessToken 在 context 中携带当前用户的访问令牌
// 数据访问层据此以用户身份访问后端，未携带时使用匿名身份
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext 读取 context 中的访问令牌
func AccessTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return v
	}
	return ""
}
