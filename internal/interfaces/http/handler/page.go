package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/application/auth"
	"conference-rag/internal/application/search"
	"conference-rag/internal/application/setup"
	"conference-rag/internal/domain/entity"
	"conference-rag/internal/interfaces/http/render"
	"conference-rag/pkg/logger"
)

const pageTemplate = "index.html"

// PageHandler 控制台页面
type PageHandler struct {
	sessions *Sessions
	auth     *auth.Controller
	pipeline *search.Pipeline
	diag     *setup.Diagnostics
	appName  string
}

// NewPageHandler 创建页面处理器
func NewPageHandler(sessions *Sessions, controller *auth.Controller, pipeline *search.Pipeline, diag *setup.Diagnostics, appName string) *PageHandler {
	return &PageHandler{
		sessions: sessions,
		auth:     controller,
		pipeline: pipeline,
		diag:     diag,
		appName:  appName,
	}
}

// Index 控制台首页；带 magic link 回调参数时先完成登录再跳回干净的地址
func (h *PageHandler) Index(c *gin.Context) {
	cb := auth.Callback{
		Code:             c.Query("code"),
		TokenHash:        c.Query("token_hash"),
		Type:             c.Query("type"),
		ErrorDescription: c.Query("error_description"),
	}
	if !cb.Empty() {
		h.completeSignIn(c, cb)
		return
	}

	sess, _, err := h.sessions.current(c)
	if err != nil {
		internalError(c, "failed to load session", err)
		return
	}
	h.render(c, sess, nil)
}

func (h *PageHandler) completeSignIn(c *gin.Context, cb auth.Callback) {
	ctx := c.Request.Context()
	sess, err := h.auth.CompleteSignIn(ctx, sessionID(c), cb)
	h.sessions.bind(c, sess)
	if err != nil {
		logger.Warn(ctx, "sign-in callback failed", "error", err.Error())
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Search 面板检索，整页渲染
func (h *PageHandler) Search(c *gin.Context) {
	mode, ok := search.ParseMode(c.Param("mode"))
	if !ok {
		c.String(http.StatusNotFound, "unknown search mode")
		return
	}

	sess, ctx, err := h.sessions.current(c)
	if err != nil {
		internalError(c, "failed to load session", err)
		return
	}
	if !sess.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	query := c.Query("q")
	_, html, err := runSearch(ctx, h.pipeline, sess, mode, query)
	if errors.Is(err, search.ErrEmptyQuery) {
		html = ""
	}
	h.render(c, sess, &panelResult{mode: mode, query: query, html: html})
}

// panelResult 需要回填到某个面板的检索结果
type panelResult struct {
	mode  search.Mode
	query string
	html  template.HTML
}

func (h *PageHandler) render(c *gin.Context, sess *entity.Session, result *panelResult) {
	ctx := c.Request.Context()

	view := &pageView{
		AppName:       h.appName,
		Authenticated: sess.IsAuthenticated(),
		Searching:     render.Searching(),
	}
	if view.Authenticated {
		view.UserEmail = sess.User.Email
		view.Panels = newPanels(sess.Readiness)
		for _, p := range view.Panels {
			if result != nil && p.Mode == result.mode {
				p.Query = result.query
				p.Results = result.html
			}
		}
	} else if sess.Flash != nil {
		flash, err := h.auth.TakeFlash(ctx, sess.ID)
		if err != nil {
			logger.Warn(ctx, "failed to clear flash message", "error", err.Error())
		}
		view.Flash = flash
	}

	report := h.diag.Report(ctx)
	_, dismissErr := c.Cookie(setup.DismissCookie)
	view.Banner = bannerView{
		Visible:      report.Visible(dismissErr == nil),
		Items:        report.Items(),
		PublicURL:    h.diag.PublicURL(),
		DashboardURL: report.DashboardURL,
		GuideURL:     report.GuideURL,
	}

	c.HTML(http.StatusOK, pageTemplate, view)
}
