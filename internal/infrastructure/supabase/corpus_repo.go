package supabase

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
)

var (
	_ repository.CorpusRepository = (*CorpusRepository)(nil)
	_ repository.IdentityProvider = (*Client)(nil)
	_ repository.ModelFunctions   = (*Client)(nil)
)

// CorpusRepository 通过 PostgREST 访问句子语料
type CorpusRepository struct {
	client *Client
}

// NewCorpusRepository 创建语料仓储
func NewCorpusRepository(client *Client) *CorpusRepository {
	return &CorpusRepository{client: client}
}

// CountSentences 统计句子数
func (r *CorpusRepository) CountSentences(ctx context.Context) (int64, error) {
	return r.client.Count(ctx, r.client.opts.SentenceTable)
}

// HasEmbeddings 查询一条带向量的句子
func (r *CorpusRepository) HasEmbeddings(ctx context.Context) (bool, error) {
	var rows []json.RawMessage
	err := r.client.Select(ctx, r.client.opts.SentenceTable, url.Values{
		"select":    {"talk_id"},
		"embedding": {"not.is.null"},
		"limit":     {"1"},
	}, &rows)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// SearchText 大小写不敏感的子串匹配
func (r *CorpusRepository) SearchText(ctx context.Context, query string, limit int) ([]*entity.Sentence, error) {
	var rows []*entity.Sentence
	err := r.client.Select(ctx, r.client.opts.SentenceTable, url.Values{
		"select": {"text,talk_id,title,speaker"},
		"text":   {"ilike.%" + query + "%"},
		"limit":  {strconv.Itoa(limit)},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type matchArgs struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

// MatchSentences 调用相似度检索 RPC
func (r *CorpusRepository) MatchSentences(ctx context.Context, embedding []float32, threshold float64, count int) ([]*entity.Sentence, error) {
	var rows []*entity.Sentence
	err := r.client.RPC(ctx, r.client.opts.MatchFunction, matchArgs{
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     count,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
