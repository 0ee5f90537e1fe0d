package handler

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/application/auth"
	"conference-rag/internal/application/search"
	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
	"conference-rag/internal/interfaces/http/dto"
	"conference-rag/internal/interfaces/http/middleware"
	"conference-rag/internal/interfaces/http/render"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
)

// Sessions 处理器共享的会话加载
type Sessions struct {
	auth   *auth.Controller
	cookie middleware.SessionCookieConfig
}

// NewSessions 创建会话加载器
func NewSessions(controller *auth.Controller, cookie middleware.SessionCookieConfig) *Sessions {
	return &Sessions{auth: controller, cookie: cookie}
}

// current 加载当前会话并绑定 cookie，返回携带访问令牌的 context
func (s *Sessions) current(c *gin.Context) (*entity.Session, context.Context, error) {
	sess, err := s.auth.Current(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		return nil, nil, err
	}
	s.bind(c, sess)
	return sess, repository.WithAccessToken(c.Request.Context(), sess.AccessToken), nil
}

func (s *Sessions) bind(c *gin.Context, sess *entity.Session) {
	if sess == nil {
		return
	}
	middleware.BindSession(c, s.cookie, sess.ID)
	if sess.User != nil {
		ctx := logger.WithContext(c.Request.Context(), logger.UserEmailKey, sess.User.Email)
		c.Request = c.Request.WithContext(ctx)
	}
}

// runSearch 执行检索；空查询直接返回，未就绪的能力不发起后端调用
// 返回的片段在成功与失败时都可直接展示
func runSearch(ctx context.Context, p *search.Pipeline, sess *entity.Session, mode search.Mode, query string) (*search.Result, template.HTML, error) {
	if strings.TrimSpace(query) == "" {
		return nil, "", search.ErrEmptyQuery
	}
	if !sess.Readiness.Ready(mode.Capability()) {
		return nil, render.ErrorResult(apperrors.UserMessage(apperrors.ErrNotReady)), apperrors.ErrNotReady
	}
	res, err := p.Run(ctx, mode, query)
	if err != nil {
		return nil, render.ErrorResult(apperrors.UserMessage(err)), err
	}
	return res, resultsHTML(res), nil
}

// internalError 记录错误并返回通用提示
func internalError(c *gin.Context, msg string, err error) {
	logger.Error(c.Request.Context(), msg, err)
	if middleware.WantsJSON(c) {
		dto.AppError(c, apperrors.ErrInternalError.WithDetail(msg))
		return
	}
	c.String(http.StatusInternalServerError, apperrors.UserMessage(apperrors.ErrInternalError))
	c.Abort()
}
