// Package utils 提供通用工具函数
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AccessClaims Supabase 访问令牌中关心的声明
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessToken 解析 Supabase 签发的访问令牌（不校验签名）
// 签名由 Supabase 在每次请求时校验，这里只读取过期时间与身份信息
func ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenExpired 判断令牌在 now+leeway 时是否已过期
// 无法解析或缺少 exp 的令牌视为未过期，交给后端判定
func TokenExpired(tokenString string, now time.Time, leeway time.Duration) bool {
	claims, err := ParseAccessToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now.Add(leeway))
}

// TokenExpiry 返回令牌过期时间，缺失时返回零值
func TokenExpiry(tokenString string) time.Time {
	claims, err := ParseAccessToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
