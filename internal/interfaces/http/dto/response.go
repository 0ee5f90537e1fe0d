// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-rag/internal/interfaces/http/render"
	apperrors "conference-rag/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
// HTML 为可直接插入结果面板的错误片段
type ErrorResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Error   *ErrorDetail  `json:"error,omitempty"`
	HTML    template.HTML `json:"html,omitempty"`
	TraceID string        `json:"trace_id,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// AppError 按 AppError 返回错误响应并附带可直接展示的错误片段
// 非 AppError 一律 500 且不暴露原始信息
func AppError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		detail = &ErrorDetail{ErrorCode: string(appErr.Code), Details: appErr.Detail}
	}
	msg := apperrors.UserMessage(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    status,
		Message: msg,
		Error:   detail,
		HTML:    render.ErrorResult(msg),
		TraceID: c.GetString("trace_id"),
	})
}
