// Package supabase 提供 Supabase 后端（GoTrue / PostgREST / Edge Functions）客户端
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"conference-rag/internal/config"
	"conference-rag/internal/domain/repository"
	"conference-rag/pkg/logger"
	"conference-rag/pkg/metrics"
	"conference-rag/pkg/tracer"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody 错误响应体最多读取的字节数
	maxErrorBody = 64 << 10
)

// Options 后端资源命名
type Options struct {
	SentenceTable    string
	MatchFunction    string
	EmbedFunction    string
	GenerateFunction string
	Timeout          time.Duration
}

func (o *Options) withDefaults() {
	if o.SentenceTable == "" {
		o.SentenceTable = "sentence_embeddings"
	}
	if o.MatchFunction == "" {
		o.MatchFunction = "match_sentences"
	}
	if o.EmbedFunction == "" {
		o.EmbedFunction = "embed-question"
	}
	if o.GenerateFunction == "" {
		o.GenerateFunction = "generate-answer"
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
}

// Client Supabase 客户端
type Client struct {
	baseURL    *url.URL
	anonKey    string
	opts       Options
	httpClient *http.Client
}

// Option 客户端可选配置
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New 创建客户端，URL 必须是带 host 的 http(s) 地址
func New(rawURL, anonKey string, opts Options, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid supabase url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid supabase url: missing host")
	}
	if anonKey == "" {
		return nil, fmt.Errorf("supabase anon key is empty")
	}

	opts.withDefaults()
	c := &Client{
		baseURL: u,
		anonKey: anonKey,
		opts:    opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// NewFromConfig 仅在凭据通过校验时创建客户端
// 构造失败只记录日志并返回 nil，调用方把 nil 视为“未配置”
func NewFromConfig(cfg *config.SupabaseConfig) *Client {
	if !config.IsSupabaseConfigValid(cfg) {
		logger.Warn(context.Background(), "supabase credentials missing or placeholder, network features disabled")
		return nil
	}
	c, err := New(cfg.URL, cfg.AnonKey, Options{
		SentenceTable:    cfg.SentenceTable,
		MatchFunction:    cfg.MatchFunction,
		EmbedFunction:    cfg.EmbedFunction,
		GenerateFunction: cfg.GenerateFunction,
		Timeout:          cfg.Timeout,
	})
	if err != nil {
		logger.Error(context.Background(), "failed to initialize supabase client", err)
		return nil
	}
	return c
}

// Options 返回资源命名配置
func (c *Client) Options() Options {
	return c.opts
}

// request 一次后端调用的描述
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// bearer 非空时覆盖 context 中的令牌
	bearer string
}

// response 后端响应
type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do 执行请求；仅传输层错误返回 error，HTTP 状态由调用方解释
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	ctx, span := tracer.Start(ctx, "supabase."+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("supabase.path", req.path),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, req)
	metrics.BackendCallDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendCallsTotal.WithLabelValues(req.op, "transport_error").Inc()
		tracer.RecordError(span, err)
		logger.Debug(ctx, "supabase call failed", "operation", req.op, "error", err.Error())
		return nil, fmt.Errorf("supabase %s: %w", req.op, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.status))
	metrics.BackendCallsTotal.WithLabelValues(req.op, strconv.Itoa(resp.status)).Inc()
	return resp, nil
}

func (c *Client) send(ctx context.Context, req request) (*response, error) {
	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = repository.AccessTokenFromContext(ctx)
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	limit := int64(-1)
	if httpResp.StatusCode >= 300 {
		limit = maxErrorBody
	}
	var reader io.Reader = httpResp.Body
	if limit > 0 {
		reader = io.LimitReader(httpResp.Body, limit)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

// decode 解析 2xx 响应体，非 2xx 转为 *Error
func decode(resp *response, out any) error {
	if !resp.ok() {
		return parseError(resp)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
