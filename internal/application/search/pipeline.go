// Package search 实现关键词、语义与问答三种检索管线
package search

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
	"conference-rag/pkg/metrics"
	"conference-rag/pkg/tracer"
)

// Pipeline 检索管线
// corpus 与 functions 为 nil 时表示后端未配置，所有检索直接失败且不产生网络调用
type Pipeline struct {
	corpus    repository.CorpusRepository
	functions repository.ModelFunctions
}

// NewPipeline 创建检索管线
func NewPipeline(corpus repository.CorpusRepository, functions repository.ModelFunctions) *Pipeline {
	return &Pipeline{corpus: corpus, functions: functions}
}

// Available 后端是否可用
func (p *Pipeline) Available() bool {
	return p != nil && p.corpus != nil && p.functions != nil
}

func (p *Pipeline) prepare(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	if !p.Available() {
		return "", apperrors.ErrClientUnavailable
	}
	return q, nil
}

// Run 按模式执行检索
func (p *Pipeline) Run(ctx context.Context, mode Mode, query string) (*Result, error) {
	switch mode {
	case ModeSemantic:
		return p.Semantic(ctx, query)
	case ModeAsk:
		return p.Ask(ctx, query)
	default:
		return p.Lexical(ctx, query)
	}
}

// Lexical 关键词检索
func (p *Pipeline) Lexical(ctx context.Context, query string) (res *Result, err error) {
	q, err := p.prepare(query)
	if err != nil {
		return nil, err
	}
	ctx, done := p.track(ctx, ModeKeyword)
	defer func() { done(res, err) }()

	rows, err := p.corpus.SearchText(ctx, q, LexicalLimit)
	if err != nil {
		return nil, searchFailed(err)
	}
	return &Result{Mode: ModeKeyword, Query: q, Matches: groupKeywordMatches(rows)}, nil
}

// EmbedQuery 获取查询向量
func (p *Pipeline) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if !p.Available() {
		return nil, apperrors.ErrClientUnavailable
	}
	emb, err := p.functions.Embed(ctx, text)
	if err != nil {
		return nil, embeddingFailed(err)
	}
	return emb, nil
}

// VectorSearch 相似句子检索
func (p *Pipeline) VectorSearch(ctx context.Context, embedding []float32) ([]*entity.Sentence, error) {
	if !p.Available() {
		return nil, apperrors.ErrClientUnavailable
	}
	rows, err := p.corpus.MatchSentences(ctx, embedding, MatchThreshold, MatchCount)
	if err != nil {
		return nil, retrievalFailed(err)
	}
	return rows, nil
}

// retrieve 向量化查询并合并出排名靠前的演讲
func (p *Pipeline) retrieve(ctx context.Context, q string) ([]*entity.TalkAggregate, error) {
	emb, err := p.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	rows, err := p.VectorSearch(ctx, emb)
	if err != nil {
		return nil, err
	}
	return AggregateByTalk(rows), nil
}

// Semantic 语义检索
func (p *Pipeline) Semantic(ctx context.Context, query string) (res *Result, err error) {
	q, err := p.prepare(query)
	if err != nil {
		return nil, err
	}
	ctx, done := p.track(ctx, ModeSemantic)
	defer func() { done(res, err) }()

	talks, err := p.retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeSemantic, Query: q, Talks: talks}, nil
}

// Ask 检索增强问答
// 检索为空时仍调用生成函数，上下文为空列表
func (p *Pipeline) Ask(ctx context.Context, query string) (res *Result, err error) {
	q, err := p.prepare(query)
	if err != nil {
		return nil, err
	}
	ctx, done := p.track(ctx, ModeAsk)
	defer func() { done(res, err) }()

	talks, err := p.retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	sources := contextTalks(talks)
	text, err := p.functions.GenerateAnswer(ctx, q, sources)
	if err != nil {
		return nil, generationFailed(err)
	}
	return &Result{
		Mode:  ModeAsk,
		Query: q,
		Talks: talks,
		Answer: &entity.Answer{
			Text:    text,
			Sources: sources,
		},
	}, nil
}

// track 记录检索的 span、指标与失败日志
func (p *Pipeline) track(ctx context.Context, mode Mode) (context.Context, func(*Result, error)) {
	ctx, span := tracer.Start(ctx, "search."+string(mode))
	span.SetAttributes(attribute.String("search.mode", string(mode)))

	start := time.Now()
	inflight := metrics.SearchInFlight.WithLabelValues(string(mode))
	inflight.Inc()

	return ctx, func(res *Result, err error) {
		inflight.Dec()
		metrics.SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())

		status := "ok"
		switch {
		case err != nil:
			status = "error"
			tracer.RecordError(span, err)
			logger.Warn(ctx, "search failed", "mode", string(mode), "error", err.Error())
		case res.Empty():
			status = "empty"
		}
		metrics.SearchTotal.WithLabelValues(string(mode), status).Inc()
		span.End()
	}
}
