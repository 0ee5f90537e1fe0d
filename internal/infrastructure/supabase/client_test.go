package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conference-rag/internal/config"
	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
)

const testAnonKey = "anon-key-0123456789abcdef"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, testAnonKey, Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://abcd.supabase.co", wantErr: false},
		{name: "trailing slash", url: "https://abcd.supabase.co/", wantErr: false},
		{name: "ftp scheme", url: "ftp://abcd.supabase.co", wantErr: true},
		{name: "missing host", url: "https://", wantErr: true},
		{name: "garbage", url: "://nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url, testAnonKey, Options{})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abcd.supabase.co", c.baseURL.Host)
			assert.Equal(t, "sentence_embeddings", c.Options().SentenceTable)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	assert.Nil(t, NewFromConfig(nil))
	assert.Nil(t, NewFromConfig(&config.SupabaseConfig{URL: "YOUR_SUPABASE_URL_HERE", AnonKey: testAnonKey}))
	// 通过校验但无法构造
	assert.Nil(t, NewFromConfig(&config.SupabaseConfig{URL: "not a url at all", AnonKey: testAnonKey}))

	c := NewFromConfig(&config.SupabaseConfig{URL: "https://abcd.supabase.co", AnonKey: testAnonKey, MatchFunction: "match_v2"})
	require.NotNil(t, c)
	assert.Equal(t, "match_v2", c.Options().MatchFunction)
}

func TestCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/rest/v1/sentence_embeddings", r.URL.Path)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))
		w.Header().Set("Content-Range", "0-24/3573")
		w.WriteHeader(http.StatusOK)
	})

	n, err := c.Count(context.Background(), "sentence_embeddings")
	require.NoError(t, err)
	assert.Equal(t, int64(3573), n)
}

func TestCountErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Count(context.Background(), "sentence_embeddings")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "0-24/3573", want: 3573},
		{in: "*/0", want: 0},
		{in: "0-0/*", wantErr: true},
		{in: "", wantErr: true},
		{in: "0-1/abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := parseContentRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestCorpusSearchText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "ilike.%fox%", q.Get("text"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "text,talk_id,title,speaker", q.Get("select"))
		_, _ = io.WriteString(w, `[{"text":"The Quick Fox","talk_id":7,"title":"Animals","speaker":"Ada"}]`)
	})

	rows, err := NewCorpusRepository(c).SearchText(context.Background(), "fox", 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.TalkID("7"), rows[0].TalkID)
	assert.Equal(t, "Ada", rows[0].Speaker)
}

func TestCorpusHasEmbeddings(t *testing.T) {
	body := `[]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "not.is.null", r.URL.Query().Get("embedding"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, body)
	})
	repo := NewCorpusRepository(c)

	ok, err := repo.HasEmbeddings(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	body = `[{"talk_id":1}]`
	ok, err = repo.HasEmbeddings(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCorpusMatchSentences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/rpc/match_sentences", r.URL.Path)

		var args map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.InDelta(t, 0.6, args["match_threshold"], 1e-9)
		assert.EqualValues(t, 20, args["match_count"])
		assert.Len(t, args["query_embedding"], 3)

		_, _ = io.WriteString(w, `[{"talk_id":"a","title":"T","speaker":"S","text":"x","similarity":0.8}]`)
	})

	rows, err := NewCorpusRepository(c).MatchSentences(context.Background(), []float32{0.1, 0.2, 0.3}, 0.6, 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.8, rows[0].Similarity, 1e-9)
}

func TestRPCErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"PGRST202","message":"Could not find the function public.match_sentences"}`)
	})

	_, err := NewCorpusRepository(c).MatchSentences(context.Background(), []float32{1}, 0.6, 20)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "PGRST202", apiErr.Code)
	assert.Equal(t, "Could not find the function public.match_sentences", apiErr.BackendMessage())
}

func TestEmbed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/embed-question", r.URL.Path)
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is rag", req.Question)
		_, _ = io.WriteString(w, `{"embedding":[0.5,0.25]}`)
	})

	vec, err := c.Embed(context.Background(), "what is rag")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestFunctionErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error field", status: 500, body: `{"error":"OpenAI quota exceeded"}`, wantMsg: "OpenAI quota exceeded"},
		{name: "no body", status: 500, body: ``, wantMsg: ""},
		{name: "non json", status: 502, body: `<html>bad gateway</html>`, wantMsg: ""},
		{name: "message ignored", status: 400, body: `{"message":"not this"}`, wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Embed(context.Background(), "q")
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.BackendMessage())

			_, err = c.GenerateAnswer(context.Background(), "q", nil)
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantMsg, apiErr.BackendMessage())
		})
	}
}

func TestGenerateAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/generate-answer", r.URL.Path)
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.ContextTalks, 1)
		assert.Equal(t, "Animals", req.ContextTalks[0].Title)
		_, _ = io.WriteString(w, `{"answer":"Foxes are quick."}`)
	})

	answer, err := c.GenerateAnswer(context.Background(), "q", []entity.ContextTalk{{Title: "Animals", Speaker: "Ada", Text: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "Foxes are quick.", answer)
}

func TestProbeGenerateSendsEmptyContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"question":"test","context_talks":[]}`, string(raw))
		w.WriteHeader(http.StatusNotFound)
	})

	status, err := c.ProbeGenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProbeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c, err := New(srv.URL, testAnonKey, Options{})
	require.NoError(t, err)
	srv.Close()

	_, err = c.ProbeEmbed(context.Background())
	assert.Error(t, err)
}

func TestAccessTokenFromContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		_, _ = io.WriteString(w, `[]`)
	})

	ctx := repository.WithAccessToken(context.Background(), "user-token")
	_, err := NewCorpusRepository(c).SearchText(ctx, "x", 20)
	require.NoError(t, err)
}

func TestSendMagicLink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/otp", r.URL.Path)
		assert.Equal(t, "https://demo.example.com/rag/", r.URL.Query().Get("redirect_to"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "s256", body["code_challenge_method"])
		assert.Equal(t, "challenge", body["code_challenge"])

		_, _ = io.WriteString(w, `{}`)
	})

	err := c.SendMagicLink(context.Background(), "ada@example.com", "https://demo.example.com/rag/", "challenge")
	require.NoError(t, err)
}

func TestSendMagicLinkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"code":429,"error_code":"over_email_send_rate_limit","msg":"Email rate limit exceeded"}`)
	})

	err := c.SendMagicLink(context.Background(), "ada@example.com", "", "")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Email rate limit exceeded", apiErr.BackendMessage())
	assert.Equal(t, "over_email_send_rate_limit", apiErr.Code)
}

func TestExchangeCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the-code", body["auth_code"])
		assert.Equal(t, "the-verifier", body["code_verifier"])

		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_at":1900000000,"user":{"id":"u1","email":"ada@example.com"}}`)
	})

	s, err := c.ExchangeCode(context.Background(), "the-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, "ada@example.com", s.User.Email)
	assert.Equal(t, int64(1900000000), s.ExpiresAt.Unix())
}

func TestSignOutWithoutTokenSkipsCall(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	require.NoError(t, c.SignOut(context.Background(), ""))
	assert.False(t, called)
}


func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		_, _ = io.WriteString(w, `{"id":"u1","email":"ada@example.com","aud":"authenticated"}`)
	})

	u, err := c.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
}
