// Package readiness 探测三种检索能力的后端就绪状态
package readiness

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
	"conference-rag/pkg/metrics"
	"conference-rag/pkg/tracer"
)

const defaultProbeTimeout = 10 * time.Second

// Prober 就绪探测器
type Prober struct {
	corpus    repository.CorpusRepository
	functions repository.ModelFunctions
	timeout   time.Duration
	now       func() time.Time
}

// NewProber 创建探测器；corpus 或 functions 为 nil 时所有能力均不就绪
func NewProber(corpus repository.CorpusRepository, functions repository.ModelFunctions, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Prober{
		corpus:    corpus,
		functions: functions,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Probe 并发执行三项探测，任何一项失败只影响自身结果
func (p *Prober) Probe(ctx context.Context) *entity.Readiness {
	r := &entity.Readiness{CheckedAt: p.now()}
	if p.corpus == nil || p.functions == nil {
		p.publish(r)
		return r
	}

	ctx, span := tracer.Start(ctx, "readiness.Probe")
	defer span.End()

	var g errgroup.Group
	g.Go(func() error {
		r.Lexical = p.check(ctx, entity.CapabilityLexical, p.lexical)
		return nil
	})
	g.Go(func() error {
		r.Vector = p.check(ctx, entity.CapabilityVector, p.vector)
		return nil
	})
	g.Go(func() error {
		r.Generation = p.check(ctx, entity.CapabilityGeneration, p.generation)
		return nil
	})
	_ = g.Wait()

	p.publish(r)
	logger.Info(ctx, "readiness probed",
		"lexical", r.Lexical,
		"vector", r.Vector,
		"generation", r.Generation,
	)
	return r
}

func (p *Prober) check(ctx context.Context, c entity.Capability, fn func(context.Context) (bool, error)) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ok, err := fn(ctx)
	if err != nil {
		logger.Warn(ctx, "readiness probe failed",
			"capability", string(c),
			"error", apperrors.Wrap(err, apperrors.CodeReadinessProbeFailed, "readiness probe failed").Error(),
		)
		return false
	}
	return ok
}

// lexical 句子表非空
func (p *Prober) lexical(ctx context.Context) (bool, error) {
	n, err := p.corpus.CountSentences(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// vector 至少一行带向量且向量化函数返回 2xx
func (p *Prober) vector(ctx context.Context) (bool, error) {
	has, err := p.corpus.HasEmbeddings(ctx)
	if err != nil || !has {
		return false, err
	}
	status, err := p.functions.ProbeEmbed(ctx)
	if err != nil {
		return false, err
	}
	return status >= 200 && status < 300, nil
}

// generation 生成函数已部署即可，非 404 的任何状态都视为就绪
func (p *Prober) generation(ctx context.Context) (bool, error) {
	status, err := p.functions.ProbeGenerate(ctx)
	if err != nil {
		return false, err
	}
	return status != 404, nil
}

func (p *Prober) publish(r *entity.Readiness) {
	for _, c := range entity.Capabilities {
		metrics.Readiness.WithLabelValues(string(c)).Set(metrics.BoolValue(r.Ready(c)))
	}
}
