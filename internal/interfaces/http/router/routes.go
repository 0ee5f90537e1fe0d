package router

import (
	"github.com/gin-gonic/gin"

	"conference-rag/internal/interfaces/http/handler"
)

// registerRoutes 注册控制台与 v1 路由
func registerRoutes(app *gin.RouterGroup, h *Handlers, limit gin.HandlerFunc) {
	app.GET("/", h.Page.Index)
	app.GET("/search/:mode", limit, h.Page.Search)

	auth := app.Group("/auth")
	{
		auth.POST("/login", limit, h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
	}

	app.POST("/setup/dismiss", h.Setup.Dismiss)

	v1 := app.Group("/v1")
	{
		v1.GET("/session", h.Auth.Session)
		v1.POST("/search/:mode", limit, h.Search.Search)
	}
}

// NewHandlers 组装处理器
func NewHandlers(page *handler.PageHandler, auth *handler.AuthHandler, search *handler.SearchHandler, setup *handler.SetupHandler, health *handler.HealthHandler) *Handlers {
	return &Handlers{
		Page:   page,
		Auth:   auth,
		Search: search,
		Setup:  setup,
		Health: health,
	}
}
