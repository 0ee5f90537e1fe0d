package dto

import (
	"conference-rag/internal/application/setup"
	"conference-rag/internal/domain/entity"
)

// SessionResponse 当前会话状态
type SessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Email         string            `json:"email,omitempty"`
	Configured    bool              `json:"configured"`
	Readiness     *entity.Readiness `json:"readiness,omitempty"`
	Setup         *setup.Report     `json:"setup,omitempty"`
}

// NewSessionResponse 构造会话响应
func NewSessionResponse(sess *entity.Session, configured bool, report *setup.Report) *SessionResponse {
	resp := &SessionResponse{
		Authenticated: sess.IsAuthenticated(),
		Configured:    configured,
		Setup:         report,
	}
	if resp.Authenticated {
		resp.Email = sess.User.Email
		resp.Readiness = sess.Readiness
	}
	return resp
}
