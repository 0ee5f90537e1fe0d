package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/interfaces/http/dto"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
)

// RateLimitRemainingHeader 剩余配额响应头
const RateLimitRemainingHeader = "X-RateLimit-Remaining"

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// remainingReporter 可报告剩余配额的限流器
type remainingReporter interface {
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// BuildRateLimitKey 构建限流键，subject 为客户端 IP
func BuildRateLimitKey(subject, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, subject)
}

// RateLimit 按客户端 IP 与路由限流
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := BuildRateLimitKey(c.ClientIP(), route)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key, cfg.RequestsPerSecond, time.Second)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(ctx, "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}
		if r, ok := limiter.(remainingReporter); ok {
			if n, err := r.Remaining(ctx, key, cfg.RequestsPerSecond, time.Second); err == nil {
				c.Header(RateLimitRemainingHeader, strconv.Itoa(n))
			}
		}

		if !allowed {
			if WantsJSON(c) {
				dto.AppError(c, apperrors.ErrTooManyRequests.WithDetail(route))
				return
			}
			c.AbortWithStatus(http.StatusTooManyRequests)
			_, _ = c.Writer.WriteString(apperrors.ErrTooManyRequests.Message)
			return
		}

		c.Next()
	}
}
