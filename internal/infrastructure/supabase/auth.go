package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"conference-rag/internal/domain/entity"
)

const authPrefix = "/auth/v1"

// sessionPayload GoTrue 返回的会话
type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (p *sessionPayload) toEntity(now time.Time) (*entity.AuthSession, error) {
	if p.AccessToken == "" {
		return nil, fmt.Errorf("supabase: auth response carried no session")
	}
	s := &entity.AuthSession{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		User:         entity.User{ID: p.User.ID, Email: p.User.Email},
	}
	switch {
	case p.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(p.ExpiresAt, 0)
	case p.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return s, nil
}

// SendMagicLink 请求发送 magic link
func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error {
	body := map[string]any{
		"email":       email,
		"create_user": true,
		"data":        map[string]any{},
	}
	if codeChallenge != "" {
		body["code_challenge"] = codeChallenge
		body["code_challenge_method"] = "s256"
	}
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}

	resp, err := c.do(ctx, request{
		op:     "auth.otp",
		method: http.MethodPost,
		path:   authPrefix + "/otp",
		query:  q,
		body:   body,
		bearer: c.anonKey,
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ExchangeCode 用 PKCE code 换取会话
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*entity.AuthSession, error) {
	return c.tokenGrant(ctx, "auth.exchange_code", "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": codeVerifier,
	})
}

// Refresh 刷新会话
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*entity.AuthSession, error) {
	return c.tokenGrant(ctx, "auth.refresh", "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *Client) tokenGrant(ctx context.Context, op, grantType string, body map[string]string) (*entity.AuthSession, error) {
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   authPrefix + "/token",
		query:  url.Values{"grant_type": {grantType}},
		body:   body,
		bearer: c.anonKey,
	})
	if err != nil {
		return nil, err
	}
	var payload sessionPayload
	if err := decode(resp, &payload); err != nil {
		return nil, err
	}
	return payload.toEntity(time.Now())
}

// VerifyTokenHash 校验邮件中的 token_hash
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, verifyType string) (*entity.AuthSession, error) {
	if verifyType == "" {
		verifyType = "email"
	}
	resp, err := c.do(ctx, request{
		op:     "auth.verify",
		method: http.MethodPost,
		path:   authPrefix + "/verify",
		body:   map[string]string{"token_hash": tokenHash, "type": verifyType},
		bearer: c.anonKey,
	})
	if err != nil {
		return nil, err
	}
	var payload sessionPayload
	if err := decode(resp, &payload); err != nil {
		return nil, err
	}
	return payload.toEntity(time.Now())
}

// GetUser 用访问令牌查询当前用户
func (c *Client) GetUser(ctx context.Context, accessToken string) (*entity.User, error) {
	resp, err := c.do(ctx, request{
		op:     "auth.user",
		method: http.MethodGet,
		path:   authPrefix + "/user",
		bearer: accessToken,
	})
	if err != nil {
		return nil, err
	}
	var u entity.User
	if err := decode(resp, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut 注销当前会话
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	resp, err := c.do(ctx, request{
		op:     "auth.logout",
		method: http.MethodPost,
		path:   authPrefix + "/logout",
		query:  url.Values{"scope": {"local"}},
		bearer: accessToken,
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Health 身份服务健康检查
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, request{
		op:     "auth.health",
		method: http.MethodGet,
		path:   authPrefix + "/health",
		bearer: c.anonKey,
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}
