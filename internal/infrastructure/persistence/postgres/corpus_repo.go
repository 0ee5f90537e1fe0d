package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
)

var _ repository.CorpusRepository = (*CorpusRepository)(nil)

// CorpusRepository 直连数据库的语料仓储
// 与 PostgREST 实现共享表名和函数名，并以请求者身份执行
type CorpusRepository struct {
	client *Client
	table  string
	fn     string
}

// NewCorpusRepository 创建语料仓储
func NewCorpusRepository(client *Client, table, matchFunction string) *CorpusRepository {
	return &CorpusRepository{
		client: client,
		table:  pq.QuoteIdentifier(table),
		fn:     pq.QuoteIdentifier(matchFunction),
	}
}

// sentenceRow 查询结果行；title/speaker 允许为空
type sentenceRow struct {
	TalkID     string   `gorm:"column:talk_id"`
	Title      *string  `gorm:"column:title"`
	Speaker    *string  `gorm:"column:speaker"`
	Text       string   `gorm:"column:text"`
	Similarity *float64 `gorm:"column:similarity"`
}

func (r *sentenceRow) toEntity() *entity.Sentence {
	s := &entity.Sentence{TalkID: entity.TalkID(r.TalkID), Text: r.Text}
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.Speaker != nil {
		s.Speaker = *r.Speaker
	}
	if r.Similarity != nil {
		s.Similarity = *r.Similarity
	}
	return s
}

func toEntities(rows []sentenceRow) []*entity.Sentence {
	out := make([]*entity.Sentence, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out
}

// CountSentences 统计句子数
func (r *CorpusRepository) CountSentences(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CorpusRepository.CountSentences")
	defer span.End()

	var count int64
	err := r.client.withRequestRole(ctx, func(tx *gorm.DB) error {
		return tx.Raw("SELECT count(*) FROM " + r.table).Scan(&count).Error
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count sentences: %w", err)
	}
	return count, nil
}

// HasEmbeddings 是否存在带向量的句子
func (r *CorpusRepository) HasEmbeddings(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.CorpusRepository.HasEmbeddings")
	defer span.End()

	var found []int
	err := r.client.withRequestRole(ctx, func(tx *gorm.DB) error {
		return tx.Raw("SELECT 1 FROM " + r.table + " WHERE embedding IS NOT NULL LIMIT 1").Scan(&found).Error
	})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to probe embeddings: %w", err)
	}
	return len(found) > 0, nil
}

// SearchText 大小写不敏感的子串匹配，query 中的通配符与 PostgREST 一样原样生效
func (r *CorpusRepository) SearchText(ctx context.Context, query string, limit int) ([]*entity.Sentence, error) {
	ctx, span := tracer.Start(ctx, "postgres.CorpusRepository.SearchText")
	span.SetAttributes(attribute.Int("corpus.limit", limit))
	defer span.End()

	var rows []sentenceRow
	err := r.client.withRequestRole(ctx, func(tx *gorm.DB) error {
		return tx.Raw(
			"SELECT talk_id::text AS talk_id, title, speaker, text FROM "+r.table+" WHERE text ILIKE ? LIMIT ?",
			"%"+query+"%", limit,
		).Scan(&rows).Error
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search sentences: %w", err)
	}
	return toEntities(rows), nil
}

// MatchSentences 调用相似度检索函数
func (r *CorpusRepository) MatchSentences(ctx context.Context, embedding []float32, threshold float64, count int) ([]*entity.Sentence, error) {
	ctx, span := tracer.Start(ctx, "postgres.CorpusRepository.MatchSentences")
	span.SetAttributes(
		attribute.Int("corpus.dimensions", len(embedding)),
		attribute.Float64("corpus.threshold", threshold),
		attribute.Int("corpus.match_count", count),
	)
	defer span.End()

	var rows []sentenceRow
	err := r.client.withRequestRole(ctx, func(tx *gorm.DB) error {
		return tx.Raw(
			"SELECT talk_id::text AS talk_id, title, speaker, text, similarity FROM "+r.fn+"(?, ?, ?)",
			pgvector.NewVector(embedding), threshold, count,
		).Scan(&rows).Error
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to match sentences: %w", err)
	}
	return toEntities(rows), nil
}
