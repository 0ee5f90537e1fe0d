package memory

import (
	"context"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter 进程内令牌桶限流器，未启用 Redis 时使用
// 每个 key 一个令牌桶，空闲超过 idleTTL 后回收
type RateLimiter struct {
	buckets *cache.Cache
	burst   int
}

// NewRateLimiter 创建限流器；burst <= 0 时取窗口内的请求上限
func NewRateLimiter(burst int, idleTTL time.Duration) *RateLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		buckets: cache.New(idleTTL, idleTTL),
		burst:   burst,
	}
}

// Allow 按 limit/window 的速率放行请求
func (l *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.bucket(key, limit, window).Allow(), nil
}

// Remaining 当前可立即放行的请求数
func (l *RateLimiter) Remaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	return int(math.Max(0, math.Floor(l.bucket(key, limit, window).Tokens()))), nil
}

func (l *RateLimiter) bucket(key string, limit int, window time.Duration) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	if window <= 0 {
		window = time.Second
	}
	burst := l.burst
	if burst <= 0 {
		burst = limit
	}
	lim := rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), burst)
	// 并发首次访问时以先写入者为准
	if err := l.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}
