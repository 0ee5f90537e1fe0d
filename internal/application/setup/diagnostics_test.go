package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"conference-rag/internal/config"
)

type backendErr struct{ msg string }

func (e *backendErr) Error() string          { return e.msg }
func (e *backendErr) BackendMessage() string { return e.msg }

type stubHealth struct {
	err   error
	calls int
}

func (s *stubHealth) Health(context.Context) error {
	s.calls++
	return s.err
}

func validConfig() *config.SupabaseConfig {
	return &config.SupabaseConfig{
		URL:     "https://abcdefgh.supabase.co",
		AnonKey: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.anon",
	}
}

func TestReportConfigInvalid(t *testing.T) {
	h := &stubHealth{}
	d := NewDiagnostics(&config.SupabaseConfig{URL: "https://your-project-ref.supabase.co", AnonKey: "your-anon-key"}, h, "https://demo.example.com/")

	r := d.Report(context.Background())
	assert.False(t, r.ConfigValid)
	assert.Equal(t, StatusError, r.Config.Status)
	assert.Equal(t, "❌", r.Config.Icon)
	assert.Equal(t, "Waiting for config...", r.Connection.Text)
	assert.Equal(t, StatusWarning, r.Redirect.Status)
	assert.Equal(t, "Add https://demo.example.com/ to Supabase redirect URLs", r.Redirect.Text)
	assert.True(t, r.Visible(false))
	assert.False(t, r.Visible(true))
	assert.Zero(t, h.calls)
}

func TestReportAllGood(t *testing.T) {
	h := &stubHealth{}
	d := NewDiagnostics(validConfig(), h, "https://demo.example.com/")

	r := d.Report(context.Background())
	assert.True(t, r.AllGood())
	assert.Equal(t, "Supabase connection OK", r.Connection.Text)
	assert.Equal(t, "https://supabase.com/dashboard/project/abcdefgh/auth/url-configuration", r.DashboardURL)
	assert.False(t, r.Visible(false))
	assert.Len(t, r.Items(), 3)

	d.Report(context.Background())
	assert.Equal(t, 1, h.calls)
}

func TestReportConnectionFailures(t *testing.T) {
	tests := []struct {
		name   string
		health HealthChecker
		want   string
	}{
		{"no client", nil, "Failed to create Supabase client"},
		{"backend message", &stubHealth{err: &backendErr{msg: "Invalid API key"}}, "Connection failed: Invalid API key"},
		{"transport", &stubHealth{err: errors.New("dial tcp")}, "Connection failed - check config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDiagnostics(validConfig(), tt.health, "https://demo.example.com/").Report(context.Background())
			assert.True(t, r.ConfigValid)
			assert.False(t, r.ConnectionOK)
			assert.Equal(t, StatusError, r.Connection.Status)
			assert.Equal(t, tt.want, r.Connection.Text)
			assert.True(t, r.Visible(false))
		})
	}
}

func TestGuideURL(t *testing.T) {
	assert.Equal(t, "https://github.com/ada/talks-demo/blob/main/README.md", GuideURL("https://ada.github.io/talks-demo/"))
	assert.Equal(t, "https://github.com/ada/conference-rag/blob/main/README.md", GuideURL("https://ada.github.io/"))
	assert.Equal(t, "README.md", GuideURL("https://demo.example.com/"))
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "", DashboardURL("::not a url"))
	assert.Equal(t, "https://supabase.com/dashboard/project/localhost/auth/url-configuration", DashboardURL("http://localhost:54321"))
}
