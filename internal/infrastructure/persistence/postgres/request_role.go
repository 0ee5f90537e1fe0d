package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"conference-rag/internal/domain/repository"
	"conference-rag/pkg/utils"
)

// 与 PostgREST 一致的数据库角色
const (
	roleAnon          = "anon"
	roleAuthenticated = "authenticated"
)

// requestClaims 由访问令牌推导出 request.jwt.claims 与数据库角色
// 令牌不可解析时按匿名处理
func requestClaims(ctx context.Context) (role string, claims string) {
	token := repository.AccessTokenFromContext(ctx)
	parsed, err := utils.ParseAccessToken(token)
	if err != nil || parsed.Subject == "" {
		return roleAnon, `{"role":"anon"}`
	}

	role = roleAuthenticated
	if parsed.Role == roleAnon {
		role = roleAnon
	}
	buf, err := json.Marshal(map[string]string{
		"sub":   parsed.Subject,
		"role":  role,
		"email": parsed.Email,
	})
	if err != nil {
		return roleAnon, `{"role":"anon"}`
	}
	return role, string(buf)
}

// withRequestRole 在事务中以请求者身份执行查询，使行级安全策略与 PostgREST 访问一致
func (c *Client) withRequestRole(ctx context.Context, fn func(tx *gorm.DB) error) error {
	role, claims := requestClaims(ctx)

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, TRUE)", claims).Error; err != nil {
			return fmt.Errorf("failed to set request claims: %w", err)
		}
		// 角色名来自常量，不接受外部输入
		if err := tx.Exec("SET LOCAL ROLE " + role).Error; err != nil {
			return fmt.Errorf("failed to set request role: %w", err)
		}
		return fn(tx)
	})
}
