package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const realKey = "sb_publishable_abcdefghijklmnopqrstuvwxyz"

func TestIsSupabaseConfigValid(t *testing.T) {
	tests := []struct {
		name string
		cfg  *SupabaseConfig
		want bool
	}{
		{name: "nil config", cfg: nil, want: false},
		{name: "real values", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: realKey}, want: true},
		{name: "empty url", cfg: &SupabaseConfig{URL: "", AnonKey: realKey}, want: false},
		{name: "url placeholder token", cfg: &SupabaseConfig{URL: "YOUR_SUPABASE_URL_HERE", AnonKey: realKey}, want: false},
		{name: "url project placeholder", cfg: &SupabaseConfig{URL: "https://YOUR-PROJECT.supabase.co", AnonKey: realKey}, want: false},
		{name: "url example value", cfg: &SupabaseConfig{URL: "https://your-project-ref.supabase.co", AnonKey: realKey}, want: false},
		{name: "empty key", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: ""}, want: false},
		{name: "key placeholder token", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: "YOUR_SUPABASE_ANON_KEY_HERE"}, want: false},
		{name: "key example value", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: "your-anon-key-goes-here-please"}, want: false},
		{name: "key too short", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: "0123456789abcdefghi"}, want: false},
		{name: "key exactly twenty", cfg: &SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: "0123456789abcdefghij"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupabaseConfigValid(tt.cfg))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{HTTP: HTTPServerConfig{Port: 8080}},
			Corpus:  CorpusConfig{Backend: CorpusBackendREST},
			Session: SessionConfig{CookieName: "rag_session"},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Corpus.Backend = "milvus"
	assert.Error(t, c.Validate())

	c = base()
	c.Server.HTTP.Port = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Session.CookieName = ""
	assert.Error(t, c.Validate())
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	yaml := `
app:
  public_url: "https://demo.example.com/rag/"
supabase:
  url: "${TEST_SUPABASE_URL:https://fallback.supabase.co}"
  anon_key: "` + realKey + `"
  timeout: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://fallback.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, 5*time.Second, cfg.Supabase.Timeout)
	assert.Equal(t, "sentence_embeddings", cfg.Supabase.SentenceTable)
	assert.Equal(t, "match_sentences", cfg.Supabase.MatchFunction)
	assert.Equal(t, CorpusBackendREST, cfg.Corpus.Backend)
	assert.Equal(t, "https://demo.example.com/rag/", cfg.App.PublicURL)
	assert.NoError(t, cfg.Validate())
	assert.True(t, IsSupabaseConfigValid(&cfg.Supabase))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("RAG_TEST_VAR", "value")

	assert.Equal(t, "a=value", expandEnv("a=${RAG_TEST_VAR}"))
	assert.Equal(t, "b=dflt", expandEnv("b=${RAG_TEST_MISSING:dflt}"))
	assert.Equal(t, "c=${RAG_TEST_MISSING}", expandEnv("c=${RAG_TEST_MISSING}"))
}
