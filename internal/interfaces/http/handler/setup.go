package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/application/setup"
)

// SetupHandler 配置诊断横幅
type SetupHandler struct {
	secure bool
}

// NewSetupHandler 创建横幅处理器
func NewSetupHandler(secure bool) *SetupHandler {
	return &SetupHandler{secure: secure}
}

// Dismiss 在本次浏览器会话内隐藏横幅
func (h *SetupHandler) Dismiss(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     setup.DismissCookie,
		Value:    "true",
		Path:     "/",
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusSeeOther, "/")
}
