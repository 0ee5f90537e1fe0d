package search

import (
	"sort"
	"strings"

	"conference-rag/internal/domain/entity"
)

// AggregateByTalk 按演讲合并句子
// 组按首次出现顺序建立，再按句子数降序稳定排序，截取前 TopTalks 个
func AggregateByTalk(rows []*entity.Sentence) []*entity.TalkAggregate {
	groups := make(map[entity.TalkID]*entity.TalkAggregate)
	ordered := make([]*entity.TalkAggregate, 0)

	for _, row := range rows {
		if row == nil {
			continue
		}
		g, ok := groups[row.TalkID]
		if !ok {
			g = &entity.TalkAggregate{
				TalkID:  row.TalkID,
				Title:   row.Title,
				Speaker: row.Speaker,
			}
			groups[row.TalkID] = g
			ordered = append(ordered, g)
		}
		g.Sentences = append(g.Sentences, row.Text)
		g.TotalSimilarity += row.Similarity
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SentenceCount() > ordered[j].SentenceCount()
	})
	if len(ordered) > TopTalks {
		ordered = ordered[:TopTalks]
	}
	for _, g := range ordered {
		g.Text = strings.Join(g.Sentences, " ")
	}
	return ordered
}

// groupKeywordMatches 关键词命中按演讲分组，每个演讲最多保留 MaxSentencesPerTalk 句
func groupKeywordMatches(rows []*entity.Sentence) []*entity.KeywordMatch {
	groups := make(map[entity.TalkID]*entity.KeywordMatch)
	ordered := make([]*entity.KeywordMatch, 0)

	for _, row := range rows {
		if row == nil {
			continue
		}
		g, ok := groups[row.TalkID]
		if !ok {
			g = &entity.KeywordMatch{
				TalkID:  row.TalkID,
				Title:   orDefault(row.Title, entity.UnknownTalk),
				Speaker: orDefault(row.Speaker, entity.UnknownSpeaker),
			}
			groups[row.TalkID] = g
			ordered = append(ordered, g)
		}
		if len(g.Sentences) < MaxSentencesPerTalk {
			g.Sentences = append(g.Sentences, row.Text)
		}
	}
	return ordered
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func contextTalks(talks []*entity.TalkAggregate) []entity.ContextTalk {
	out := make([]entity.ContextTalk, 0, len(talks))
	for _, t := range talks {
		out = append(out, t.ContextTalk())
	}
	return out
}
