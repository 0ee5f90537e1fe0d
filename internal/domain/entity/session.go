package entity

import "time"

// SessionState 会话状态
type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionAuthenticated   SessionState = "authenticated"
)

// SessionEvent 会话状态变化事件
type SessionEvent string

const (
	EventSignedIn       SessionEvent = "SIGNED_IN"
	EventSignedOut      SessionEvent = "SIGNED_OUT"
	EventTokenRefreshed SessionEvent = "TOKEN_REFRESHED"
)

// User 登录用户身份
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession 身份服务签发的会话凭据
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// FlashMessage 登录表单上一次操作的提示，展示一次后清除
type FlashMessage struct {
	Text string `json:"text"`
	// Type success / error
	Type string `json:"type"`
}

// Session 浏览器会话（服务端保存，按 cookie 中的 ID 查找）
type Session struct {
	ID    string       `json:"id"`
	State SessionState `json:"state"`

	User         *User     `json:"user,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`

	// CodeVerifier PKCE 校验码，magic link 回调时使用
	CodeVerifier string `json:"code_verifier,omitempty"`

	Readiness *Readiness    `json:"readiness,omitempty"`
	Flash     *FlashMessage `json:"flash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession 创建未登录会话
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		State:     SessionUnauthenticated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAuthenticated 是否已登录
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.State == SessionAuthenticated && s.User != nil
}

// SignIn 进入已登录状态
func (s *Session) SignIn(auth *AuthSession) {
	user := auth.User
	s.State = SessionAuthenticated
	s.User = &user
	s.AccessToken = auth.AccessToken
	s.RefreshToken = auth.RefreshToken
	s.ExpiresAt = auth.ExpiresAt
	s.CodeVerifier = ""
	s.UpdatedAt = time.Now()
}

// SignOut 清除身份与就绪状态
func (s *Session) SignOut() {
	s.State = SessionUnauthenticated
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
	s.ExpiresAt = time.Time{}
	s.Readiness = nil
	s.UpdatedAt = time.Now()
}

// TakeFlash 取出并清除提示
func (s *Session) TakeFlash() *FlashMessage {
	f := s.Flash
	s.Flash = nil
	return f
}
