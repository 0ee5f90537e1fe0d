package config

import (
	"fmt"
	"strings"
)

// 语料访问方式
const (
	CorpusBackendREST     = "rest"
	CorpusBackendPostgres = "postgres"
)

// minAnonKeyLength 低于该长度的 key 视为占位符
const minAnonKeyLength = 20

var (
	placeholderURLFragments = []string{"YOUR_SUPABASE", "YOUR-PROJECT"}
	placeholderURLs         = []string{"https://your-project-ref.supabase.co"}
	placeholderKeyFragments = []string{"YOUR_SUPABASE", "your-anon-key"}
)

// IsSupabaseConfigValid 判断 Supabase 凭据是否为真实值
// 返回 false 时所有需要网络的功能都保持关闭
func IsSupabaseConfigValid(c *SupabaseConfig) bool {
	if c == nil {
		return false
	}
	return !isPlaceholderURL(c.URL) && !isPlaceholderKey(c.AnonKey)
}

func isPlaceholderURL(u string) bool {
	if u == "" {
		return true
	}
	for _, frag := range placeholderURLFragments {
		if strings.Contains(u, frag) {
			return true
		}
	}
	for _, exact := range placeholderURLs {
		if u == exact {
			return true
		}
	}
	return false
}

func isPlaceholderKey(k string) bool {
	if k == "" || len(k) < minAnonKeyLength {
		return true
	}
	for _, frag := range placeholderKeyFragments {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

// Validate 校验与凭据无关的结构性配置
// 凭据无效不是启动错误：控制台仍然启动并展示配置引导
func (c *Config) Validate() error {
	switch c.Corpus.Backend {
	case CorpusBackendREST, CorpusBackendPostgres:
	default:
		return fmt.Errorf("corpus.backend must be %q or %q, got %q", CorpusBackendREST, CorpusBackendPostgres, c.Corpus.Backend)
	}
	if c.Server.HTTP.Port <= 0 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port out of range: %d", c.Server.HTTP.Port)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}
	if c.Supabase.Timeout < 0 {
		return fmt.Errorf("supabase.timeout must not be negative")
	}
	return nil
}
