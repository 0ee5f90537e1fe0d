package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/interfaces/http/dto"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
)

// Recovery Panic 恢复中间件；JSON 接口返回错误结构，页面返回纯文本
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				if WantsJSON(c) {
					dto.AppError(c, apperrors.ErrInternalError)
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
				_, _ = c.Writer.WriteString(apperrors.ErrInternalError.Message)
			}
		}()

		c.Next()
	}
}

// WantsJSON 请求是否来自 JSON 接口
func WantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/v1/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}
