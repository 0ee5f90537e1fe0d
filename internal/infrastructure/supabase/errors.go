package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error 后端返回的非 2xx 响应
type Error struct {
	Status int
	// Code PostgREST / GoTrue 错误码，可能为空
	Code string
	// Message 后端提供的可读信息，可能为空
	Message string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.Status)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

// BackendMessage 后端原文，供上层拼装用户可见信息
func (e *Error) BackendMessage() string {
	return e.Message
}

// NotFound 是否为 404
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// errorBody 汇总 PostgREST、GoTrue 与 Edge Function 的错误字段
type errorBody struct {
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
}

func parseError(resp *response) *Error {
	e := &Error{Status: resp.status}

	var body errorBody
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return e
	}

	// Edge Function 约定 {error: "..."}；GoTrue 旧版本用 error 作为错误码
	var errField string
	if len(body.Error) > 0 {
		_ = json.Unmarshal(body.Error, &errField)
	}

	switch {
	case body.Msg != "":
		e.Message = body.Msg
	case body.ErrorDescription != "":
		e.Message = body.ErrorDescription
	case body.Message != "":
		e.Message = body.Message
	case errField != "":
		e.Message = errField
	}

	if body.ErrorCode != "" {
		e.Code = body.ErrorCode
	} else if len(body.Code) > 0 {
		e.Code = strings.Trim(string(body.Code), `"`)
	}
	return e
}

// parseFunctionError Edge Function 只认 {error: "..."} 字段
func parseFunctionError(resp *response) *Error {
	e := &Error{Status: resp.status}
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil || len(body.Error) == 0 {
		return e
	}
	var msg string
	if err := json.Unmarshal(body.Error, &msg); err == nil {
		e.Message = msg
	}
	return e
}
