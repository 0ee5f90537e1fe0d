package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"conference-rag/internal/domain/entity"
)

const functionsPrefix = "/functions/v1"

// probeQuestion 就绪探测使用的占位问题
const probeQuestion = "test"

// InvokeFunction 调用 Edge Function，返回状态码与响应体
// 仅传输层失败返回 error
func (c *Client) InvokeFunction(ctx context.Context, name string, payload any) (int, []byte, error) {
	resp, err := c.do(ctx, request{
		op:     "functions." + name,
		method: http.MethodPost,
		path:   functionsPrefix + "/" + name,
		body:   payload,
	})
	if err != nil {
		return 0, nil, err
	}
	return resp.status, resp.body, nil
}

type embedRequest struct {
	Question string `json:"question"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed 调用 embedding 函数
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.do(ctx, request{
		op:     "functions.embed",
		method: http.MethodPost,
		path:   functionsPrefix + "/" + c.opts.EmbedFunction,
		body:   embedRequest{Question: text},
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, parseFunctionError(resp)
	}
	var out embedResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embed response carried no embedding")
	}
	return out.Embedding, nil
}

type generateRequest struct {
	Question     string               `json:"question"`
	ContextTalks []entity.ContextTalk `json:"context_talks"`
}

type generateResponse struct {
	Answer string `json:"answer"`
}

// GenerateAnswer 调用回答生成函数
func (c *Client) GenerateAnswer(ctx context.Context, question string, talks []entity.ContextTalk) (string, error) {
	if talks == nil {
		talks = []entity.ContextTalk{}
	}
	resp, err := c.do(ctx, request{
		op:     "functions.generate",
		method: http.MethodPost,
		path:   functionsPrefix + "/" + c.opts.GenerateFunction,
		body:   generateRequest{Question: question, ContextTalks: talks},
	})
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", parseFunctionError(resp)
	}
	var out generateResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return out.Answer, nil
}

// ProbeEmbed 以占位问题调用 embedding 函数
func (c *Client) ProbeEmbed(ctx context.Context) (int, error) {
	status, _, err := c.InvokeFunction(ctx, c.opts.EmbedFunction, embedRequest{Question: probeQuestion})
	return status, err
}

// ProbeGenerate 以占位问题和空上下文调用生成函数
func (c *Client) ProbeGenerate(ctx context.Context) (int, error) {
	status, _, err := c.InvokeFunction(ctx, c.opts.GenerateFunction, generateRequest{
		Question:     probeQuestion,
		ContextTalks: []entity.ContextTalk{},
	})
	return status, err
}
