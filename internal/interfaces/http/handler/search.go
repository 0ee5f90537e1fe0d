package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/application/search"
	"conference-rag/internal/interfaces/http/dto"
	apperrors "conference-rag/pkg/errors"
)

// SearchHandler 检索 JSON 接口
type SearchHandler struct {
	sessions *Sessions
	pipeline *search.Pipeline
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(sessions *Sessions, pipeline *search.Pipeline) *SearchHandler {
	return &SearchHandler{sessions: sessions, pipeline: pipeline}
}

// Search 执行检索
// @Summary 检索
// @Description keyword / semantic / ask 三种模式，返回结构化结果与渲染好的片段
// @Tags Search
// @Accept json
// @Produce json
// @Param mode path string true "keyword | semantic | ask"
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/search/{mode} [post]
func (h *SearchHandler) Search(c *gin.Context) {
	mode, ok := search.ParseMode(c.Param("mode"))
	if !ok {
		dto.AppError(c, apperrors.ErrNotFound.WithDetail("unknown search mode"))
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	if !h.pipeline.Available() {
		dto.AppError(c, apperrors.ErrClientUnavailable)
		return
	}

	sess, ctx, err := h.sessions.current(c)
	if err != nil {
		internalError(c, "failed to load session", err)
		return
	}
	if !sess.IsAuthenticated() {
		dto.AppError(c, apperrors.ErrUnauthorized)
		return
	}

	res, html, err := runSearch(ctx, h.pipeline, sess, mode, req.Query)
	if errors.Is(err, search.ErrEmptyQuery) {
		dto.AppError(c, apperrors.ErrInvalidParam.WithDetail("query is empty"))
		return
	}
	if err != nil {
		dto.AppError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	dto.Success(c, dto.NewSearchResponse(res, html))
}
