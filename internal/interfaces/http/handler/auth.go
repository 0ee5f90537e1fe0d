package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/application/auth"
	"conference-rag/internal/application/setup"
	"conference-rag/internal/interfaces/http/dto"
	"conference-rag/internal/interfaces/http/middleware"
)

// AuthHandler magic link 登录与注销
type AuthHandler struct {
	sessions *Sessions
	auth     *auth.Controller
	diag     *setup.Diagnostics
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(sessions *Sessions, controller *auth.Controller, diag *setup.Diagnostics) *AuthHandler {
	return &AuthHandler{sessions: sessions, auth: controller, diag: diag}
}

// Login 请求 magic link，结果作为一次性提示在首页展示
func (h *AuthHandler) Login(c *gin.Context) {
	sess, _, err := h.auth.RequestMagicLink(c.Request.Context(), sessionID(c), c.PostForm("email"))
	if err != nil {
		internalError(c, "failed to request magic link", err)
		return
	}
	h.sessions.bind(c, sess)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout 注销
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, err := h.auth.SignOut(c.Request.Context(), sessionID(c))
	if err != nil {
		internalError(c, "failed to sign out", err)
		return
	}
	h.sessions.bind(c, sess)
	c.Redirect(http.StatusSeeOther, "/")
}

// Session 当前会话状态
// @Summary 会话状态
// @Tags Session
// @Produce json
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	sess, _, err := h.sessions.current(c)
	if err != nil {
		internalError(c, "failed to load session", err)
		return
	}
	dto.Success(c, dto.NewSessionResponse(sess, h.auth.Configured(), h.diag.Report(c.Request.Context())))
}

func sessionID(c *gin.Context) string {
	return middleware.SessionID(c)
}
