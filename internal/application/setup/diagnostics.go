// Package setup 生成首次部署时的配置诊断横幅
package setup

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"conference-rag/internal/config"
	"conference-rag/pkg/logger"
)

// Status 检查项状态
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Icon 状态图标
func (s Status) Icon() string {
	switch s {
	case StatusSuccess:
		return "✅"
	case StatusError:
		return "❌"
	default:
		return "⚠️"
	}
}

// DismissCookie 记录横幅已关闭的会话 cookie
const DismissCookie = "setup_banner_dismissed"

const (
	defaultRepoName = "conference-rag"
	defaultTimeout  = 10 * time.Second
)

// CheckItem 单个检查项
type CheckItem struct {
	Status Status `json:"status"`
	Icon   string `json:"icon"`
	Text   string `json:"text"`
}

func item(status Status, text string) CheckItem {
	return CheckItem{Status: status, Icon: status.Icon(), Text: text}
}

// Report 诊断结果
type Report struct {
	Config       CheckItem `json:"config"`
	Connection   CheckItem `json:"connection"`
	Redirect     CheckItem `json:"redirect"`
	ConfigValid  bool      `json:"config_valid"`
	ConnectionOK bool      `json:"connection_ok"`
	DashboardURL string    `json:"dashboard_url,omitempty"`
	GuideURL     string    `json:"guide_url"`
}

// Items 按展示顺序返回检查项
func (r *Report) Items() []CheckItem {
	return []CheckItem{r.Config, r.Connection, r.Redirect}
}

// AllGood 配置有效且连通
func (r *Report) AllGood() bool {
	return r.ConfigValid && r.ConnectionOK
}

// Visible 横幅是否展示
func (r *Report) Visible(dismissed bool) bool {
	return !r.AllGood() && !dismissed
}

// HealthChecker 身份服务连通性检查
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Diagnostics 启动时执行一次的配置诊断
type Diagnostics struct {
	cfg       *config.SupabaseConfig
	health    HealthChecker
	publicURL string
	timeout   time.Duration

	once   sync.Once
	report *Report
}

// NewDiagnostics 创建诊断；health 为 nil 表示客户端创建失败
func NewDiagnostics(cfg *config.SupabaseConfig, health HealthChecker, publicURL string) *Diagnostics {
	return &Diagnostics{
		cfg:       cfg,
		health:    health,
		publicURL: publicURL,
		timeout:   defaultTimeout,
	}
}

// PublicURL 需要加入 Supabase redirect URLs 的地址
func (d *Diagnostics) PublicURL() string {
	return d.publicURL
}

// Report 返回诊断结果，首次调用时执行检查
func (d *Diagnostics) Report(ctx context.Context) *Report {
	d.once.Do(func() {
		d.report = d.run(ctx)
	})
	return d.report
}

func (d *Diagnostics) run(ctx context.Context) *Report {
	r := &Report{
		Redirect: item(StatusWarning, "Add "+d.publicURL+" to Supabase redirect URLs"),
		GuideURL: GuideURL(d.publicURL),
	}
	if d.cfg != nil {
		r.DashboardURL = DashboardURL(d.cfg.URL)
	}

	if !config.IsSupabaseConfigValid(d.cfg) {
		r.Config = item(StatusError, "Configure Supabase credentials in configs/config.yaml")
		r.Connection = CheckItem{Status: StatusWarning, Icon: "⏳", Text: "Waiting for config..."}
		logger.Warn(ctx, "setup check: supabase credentials not configured")
		return r
	}
	r.ConfigValid = true
	r.Config = item(StatusSuccess, "Supabase credentials configured")

	if d.health == nil {
		r.Connection = item(StatusError, "Failed to create Supabase client")
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.health.Health(ctx); err != nil {
		logger.Warn(ctx, "setup check: supabase connection failed", "error", err.Error())
		r.Connection = item(StatusError, connectionFailure(err))
		return r
	}
	r.ConnectionOK = true
	r.Connection = item(StatusSuccess, "Supabase connection OK")
	return r
}

type backendMessager interface {
	BackendMessage() string
}

func connectionFailure(err error) string {
	var bm backendMessager
	if errors.As(err, &bm) && bm.BackendMessage() != "" {
		return "Connection failed: " + bm.BackendMessage()
	}
	return "Connection failed - check config"
}

// DashboardURL Supabase 控制台中重定向地址配置页
func DashboardURL(supabaseURL string) string {
	u, err := url.Parse(supabaseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	ref := strings.Split(u.Hostname(), ".")[0]
	return "https://supabase.com/dashboard/project/" + ref + "/auth/url-configuration"
}

// GuideURL 部署指南地址；GitHub Pages 部署时指向仓库 README
func GuideURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "README.md"
	}
	host := u.Hostname()
	if !strings.Contains(host, "github.io") {
		return "README.md"
	}
	user := strings.Split(host, ".")[0]
	repo := defaultRepoName
	if seg := strings.Split(strings.Trim(u.Path, "/"), "/")[0]; seg != "" {
		repo = seg
	}
	return "https://github.com/" + user + "/" + repo + "/blob/main/README.md"
}
