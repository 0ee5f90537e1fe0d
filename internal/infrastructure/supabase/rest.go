package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const restPrefix = "/rest/v1"

// Count 统计表行数（HEAD + Prefer: count=exact）
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	resp, err := c.do(ctx, request{
		op:      "rest.count",
		method:  http.MethodHead,
		path:    restPrefix + "/" + table,
		query:   url.Values{"select": {"*"}},
		headers: map[string]string{"Prefer": "count=exact"},
	})
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		// HEAD 没有响应体，只能给出状态码
		return 0, &Error{Status: resp.status}
	}
	return parseContentRange(resp.header.Get("Content-Range"))
}

// parseContentRange 解析 "0-24/3573" 或 "*/0" 中的总数
func parseContentRange(v string) (int64, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("supabase: count not returned in Content-Range %q", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q: %w", v, err)
	}
	return n, nil
}

// Select 查询表，query 使用 PostgREST 过滤语法
func (c *Client) Select(ctx context.Context, table string, query url.Values, out any) error {
	resp, err := c.do(ctx, request{
		op:     "rest.select",
		method: http.MethodGet,
		path:   restPrefix + "/" + table,
		query:  query,
	})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// RPC 调用数据库函数
func (c *Client) RPC(ctx context.Context, fn string, args any, out any) error {
	resp, err := c.do(ctx, request{
		op:     "rest.rpc",
		method: http.MethodPost,
		path:   restPrefix + "/rpc/" + fn,
		body:   args,
	})
	if err != nil {
		return err
	}
	return decode(resp, out)
}
