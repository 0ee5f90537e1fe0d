package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conference-rag/pkg/logger"
)

const sessionIDKey = "session_id"

// SessionCookieConfig 会话 cookie 配置
type SessionCookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session 读取会话 cookie，会话 ID 由会话控制器校验
func Session(cfg SessionCookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := c.Cookie(cfg.Name)
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// SessionID 当前请求携带的会话 ID
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// BindSession 控制器确定的会话 ID 与请求不一致时重写 cookie
func BindSession(c *gin.Context, cfg SessionCookieConfig, id string) {
	ctx := logger.WithContext(c.Request.Context(), logger.SessionIDKey, id)
	c.Request = c.Request.WithContext(ctx)
	if id == SessionID(c) {
		return
	}
	c.Set(sessionIDKey, id)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
