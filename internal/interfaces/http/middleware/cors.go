// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORS 跨域中间件；未配置来源时只允许控制台自身的地址
func CORS(cfg CORSConfig, publicOrigin string) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) == 0 {
		if publicOrigin == "" {
			publicOrigin = "http://localhost:8080"
		}
		cfg.AllowedOrigins = []string{publicOrigin}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	}

	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{RequestIDHeader, TraceIDHeader, RateLimitRemainingHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
