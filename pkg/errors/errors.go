// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess         ErrorCode = "0"
	CodeInvalidParam    ErrorCode = "1001"
	CodeUnauthorized    ErrorCode = "1002"
	CodeNotFound        ErrorCode = "1004"
	CodeTooManyRequests ErrorCode = "1006"
	CodeInternalError   ErrorCode = "1007"

	// 配置与后端可用性 (2xxx)
	CodeConfigurationInvalid ErrorCode = "2001"
	CodeClientUnavailable    ErrorCode = "2002"
	CodeAuthError            ErrorCode = "2003"
	CodeNotReady             ErrorCode = "2004"

	// 检索管线错误 (4xxx)
	CodeGenerationFailed     ErrorCode = "4001"
	CodeRetrievalFailed      ErrorCode = "4003"
	CodeSearchFailed         ErrorCode = "4005"
	CodeEmbeddingFailed      ErrorCode = "4006"
	CodeReadinessProbeFailed ErrorCode = "4007"

	// 外部服务错误 (5xxx)
	CodeCacheError   ErrorCode = "5002"
	CodeBackendError ErrorCode = "5003"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使预定义错误可用于 errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 添加详细信息（返回副本，不修改预定义错误）
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeAuthError:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotReady:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeConfigurationInvalid, CodeClientUnavailable:
		return http.StatusServiceUnavailable
	case CodeEmbeddingFailed, CodeRetrievalFailed, CodeGenerationFailed, CodeSearchFailed, CodeBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam    = New(CodeInvalidParam, "Please enter a query of at most 500 characters")
	ErrUnauthorized    = New(CodeUnauthorized, "Please sign in first")
	ErrNotFound        = New(CodeNotFound, "Not found")
	ErrTooManyRequests = New(CodeTooManyRequests, "Too many requests. Please slow down.")
	ErrInternalError   = New(CodeInternalError, "Something went wrong. Please try again.")

	ErrConfigurationInvalid = New(CodeConfigurationInvalid, "Configure Supabase credentials in config")
	ErrClientUnavailable    = New(CodeClientUnavailable, "Supabase not configured")
	ErrNotReady             = New(CodeNotReady, "This search is not ready yet")
)

// UserMessage 将任意错误转换为可展示给用户的文本
// 仅 AppError 的 Message 对外可见，底层错误只进入日志
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternalError.Message
}
