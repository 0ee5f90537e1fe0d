package dto

import (
	"html/template"

	"conference-rag/internal/application/search"
	"conference-rag/internal/domain/entity"
)

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query" form:"q" binding:"required,max=500"`
}

// SearchResponse 检索结果，HTML 为渲染好的结果片段
type SearchResponse struct {
	Mode    search.Mode             `json:"mode"`
	Query   string                  `json:"query"`
	Empty   bool                    `json:"empty"`
	Matches []*entity.KeywordMatch  `json:"matches,omitempty"`
	Talks   []*entity.TalkAggregate `json:"talks,omitempty"`
	Answer  *entity.Answer          `json:"answer,omitempty"`
	HTML    template.HTML           `json:"html"`
}

// NewSearchResponse 由检索结果构造响应
func NewSearchResponse(res *search.Result, html template.HTML) *SearchResponse {
	return &SearchResponse{
		Mode:    res.Mode,
		Query:   res.Query,
		Empty:   res.Empty(),
		Matches: res.Matches,
		Talks:   res.Talks,
		Answer:  res.Answer,
		HTML:    html,
	}
}
