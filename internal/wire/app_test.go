package wire

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conference-rag/internal/config"
	"conference-rag/pkg/utils"
)

// fakeSupabase 模拟 GoTrue / PostgREST / Edge Functions
type fakeSupabase struct {
	t *testing.T

	mu        sync.Mutex
	challenge string
	logouts   int
}

func (f *fakeSupabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/v1/health":
		_, _ = io.WriteString(w, `{"name":"GoTrue"}`)

	case r.URL.Path == "/auth/v1/otp":
		var body struct {
			Email     string `json:"email"`
			Challenge string `json:"code_challenge"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		if body.Email == "blocked@example.com" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"msg":"Email rate limit exceeded"}`)
			return
		}
		f.mu.Lock()
		f.challenge = body.Challenge
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{}`)

	case r.URL.Path == "/auth/v1/token":
		var body struct {
			Code     string `json:"auth_code"`
			Verifier string `json:"code_verifier"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		challenge := f.challenge
		f.mu.Unlock()
		if body.Code != "good-code" || utils.CodeChallenge(body.Verifier) != challenge {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error_description":"invalid flow state"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.token(),
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "ada@example.com"},
		})

	case r.URL.Path == "/auth/v1/logout":
		f.mu.Lock()
		f.logouts++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/rest/v1/sentence_embeddings" && r.Method == http.MethodHead:
		w.Header().Set("Content-Range", "0-0/42")

	case r.URL.Path == "/rest/v1/sentence_embeddings":
		if r.URL.Query().Get("embedding") != "" {
			_, _ = io.WriteString(w, `[{"talk_id":1}]`)
			return
		}
		_, _ = io.WriteString(w, `[
			{"talk_id":1,"title":"Animals","speaker":"Ada","text":"The quick brown fox"},
			{"talk_id":1,"title":"Animals","speaker":"Ada","text":"A fox & a hound"},
			{"talk_id":2,"title":null,"speaker":null,"text":"Foxes at night"}
		]`)

	case r.URL.Path == "/rest/v1/rpc/match_sentences":
		_, _ = io.WriteString(w, `[
			{"talk_id":"7","title":"Databases","speaker":"Grace","text":"Vectors live here","similarity":0.9},
			{"talk_id":"7","title":"Databases","speaker":"Grace","text":"Indexes matter","similarity":0.8},
			{"talk_id":"8","title":"Compilers","speaker":"Linus","text":"Parsing text","similarity":0.7}
		]`)

	case r.URL.Path == "/functions/v1/embed-question":
		var body struct {
			Question string `json:"question"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		if body.Question == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"embedding":[0.1,0.2,0.3]}`)

	case r.URL.Path == "/functions/v1/generate-answer":
		_, _ = io.WriteString(w, `{"answer":"Talk 7 covers vectors."}`)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSupabase) token() string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ada@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	assert.NoError(f.t, err)
	return tok
}

func testConfig(supabaseURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "conference-rag",
			Version:   "test",
			Env:       "test",
			PublicURL: "http://localhost:8080/",
		},
		Supabase: config.SupabaseConfig{
			URL:     supabaseURL,
			AnonKey: "anon-key-for-tests-0123456789",
			Timeout: 5 * time.Second,
		},
		Corpus:  config.CorpusConfig{Backend: config.CorpusBackendREST},
		Session: config.SessionConfig{CookieName: "rag_session", TTL: time.Hour},
	}
}

// browser 带 cookie 的测试客户端
type browser struct {
	t      *testing.T
	base   *url.URL
	client *http.Client
}

func startApp(t *testing.T, cfg *config.Config) *browser {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(app.Router.Engine())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (b *browser) get(path string) (int, string) {
	resp, err := b.client.Get(b.base.String() + path)
	require.NoError(b.t, err)
	return readBody(b.t, resp)
}

func (b *browser) postForm(path string, form url.Values) (int, string) {
	resp, err := b.client.PostForm(b.base.String()+path, form)
	require.NoError(b.t, err)
	return readBody(b.t, resp)
}

func (b *browser) postJSON(path, body string) (int, string) {
	resp, err := b.client.Post(b.base.String()+path, "application/json", strings.NewReader(body))
	require.NoError(b.t, err)
	return readBody(b.t, resp)
}

func (b *browser) sessionCookie() string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == "rag_session" {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func signIn(t *testing.T, b *browser) {
	t.Helper()
	status, body := b.postForm("/auth/login", url.Values{"email": {"ada@example.com"}})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Check your email for the magic link!")

	status, body = b.get("/?code=good-code")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "ada@example.com")
}

func TestSignInFlow(t *testing.T) {
	fake := &fakeSupabase{t: t}
	backend := httptest.NewServer(fake)
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))

	status, body := b.get("/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="email"`)

	status, body = b.postForm("/auth/login", url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Check your email for the magic link!")
	before := b.sessionCookie()
	require.NotEmpty(t, before)

	// 提示只展示一次
	_, body = b.get("/")
	assert.NotContains(t, body, "Check your email for the magic link!")

	status, body = b.get("/?code=good-code")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "ada@example.com")
	assert.Equal(t, 3, strings.Count(body, "🟢 Ready"))
	assert.NotEqual(t, before, b.sessionCookie())

	status, body = b.get("/v1/session")
	assert.Equal(t, http.StatusOK, status)
	var resp struct {
		Data struct {
			Authenticated bool   `json:"authenticated"`
			Email         string `json:"email"`
			Configured    bool   `json:"configured"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.True(t, resp.Data.Authenticated)
	assert.True(t, resp.Data.Configured)
	assert.Equal(t, "ada@example.com", resp.Data.Email)

	status, body = b.postForm("/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="email"`)
	assert.NotContains(t, body, "🟢 Ready")
	fake.mu.Lock()
	assert.Equal(t, 1, fake.logouts)
	fake.mu.Unlock()
}

func TestSignInWithBadCode(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))
	b.postForm("/auth/login", url.Values{"email": {"ada@example.com"}})

	status, body := b.get("/?code=stale-code")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Error: invalid flow state")
	assert.NotContains(t, body, "🟢 Ready")
}

func TestMagicLinkBackendError(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))
	_, body := b.postForm("/auth/login", url.Values{"email": {"blocked@example.com"}})
	assert.Contains(t, body, "Error: Email rate limit exceeded")
}

func TestKeywordSearchPage(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))
	signIn(t, b)

	status, body := b.get("/search/keyword?q=fox")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "The quick brown <mark>fox</mark>")
	assert.Contains(t, body, "A <mark>fox</mark> &amp; a hound")
	assert.Contains(t, body, "Unknown Talk")
	assert.Contains(t, body, `value="fox"`)
}

func TestSearchRequiresSignIn(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))

	status, body := b.postJSON("/v1/search/keyword", `{"query":"fox"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Please sign in first")

	// 页面检索回到登录页
	status, body = b.get("/search/keyword?q=fox")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="email"`)
}

func TestSemanticSearchJSON(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))
	signIn(t, b)

	status, body := b.postJSON("/v1/search/semantic", `{"query":"vectors"}`)
	require.Equal(t, http.StatusOK, status, body)

	var resp struct {
		Data struct {
			Mode  string `json:"mode"`
			Empty bool   `json:"empty"`
			Talks []struct {
				TalkID    string   `json:"talk_id"`
				Sentences []string `json:"sentences"`
			} `json:"talks"`
			HTML string `json:"html"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "semantic", resp.Data.Mode)
	assert.False(t, resp.Data.Empty)
	require.Len(t, resp.Data.Talks, 2)
	assert.Equal(t, "7", resp.Data.Talks[0].TalkID)
	assert.Len(t, resp.Data.Talks[0].Sentences, 2)
	assert.Contains(t, resp.Data.HTML, "Databases")
}

func TestAskSearch(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))
	signIn(t, b)

	status, body := b.postJSON("/v1/search/ask", `{"query":"what about vectors?"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "Talk 7 covers vectors.")
	assert.Contains(t, body, "AI Answer")

	status, body = b.postJSON("/v1/search/ask", `{"query":"broken"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	var errResp struct {
		Message string `json:"message"`
		HTML    string `json:"html"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &errResp))
	assert.Equal(t, "Failed to get embedding", errResp.Message)
	assert.Contains(t, errResp.HTML, "result-error")

	status, _ = b.postJSON("/v1/search/ask", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = b.postJSON("/v1/search/ask", `{"query":"`+strings.Repeat("x", 501)+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	errResp.HTML = ""
	require.NoError(t, json.Unmarshal([]byte(body), &errResp))
	assert.Contains(t, errResp.HTML, "result-error")
	assert.Contains(t, errResp.HTML, "at most 500 characters")

	status, _ = b.postJSON("/v1/search/unknown", `{"query":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnconfiguredBackend(t *testing.T) {
	cfg := testConfig("https://your-project-ref.supabase.co")
	b := startApp(t, cfg)

	status, body := b.get("/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Configure Supabase credentials in configs/config.yaml")

	_, body = b.postForm("/auth/login", url.Values{"email": {"ada@example.com"}})
	assert.Contains(t, body, "Please configure Supabase first (see Setup Guide)")

	status, body = b.postJSON("/v1/search/semantic", `{"query":"vectors"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "Supabase not configured")

	// 关闭提示条后不再展示
	_, body = b.postForm("/setup/dismiss", nil)
	assert.NotContains(t, body, "Configure Supabase credentials in configs/config.yaml")
}

func TestHealthEndpoints(t *testing.T) {
	backend := httptest.NewServer(&fakeSupabase{t: t})
	defer backend.Close()

	b := startApp(t, testConfig(backend.URL))

	status, body := b.get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ok"`)

	status, body = b.get("/ready")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "supabase")
}
