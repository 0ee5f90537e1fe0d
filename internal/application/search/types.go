package search

import "conference-rag/internal/domain/entity"

// Mode 检索模式
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeAsk      Mode = "ask"
)

// Modes 全部检索模式
var Modes = []Mode{ModeKeyword, ModeSemantic, ModeAsk}

// ParseMode 解析路由参数中的模式
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Capability 模式依赖的检索能力
func (m Mode) Capability() entity.Capability {
	switch m {
	case ModeSemantic:
		return entity.CapabilityVector
	case ModeAsk:
		return entity.CapabilityGeneration
	default:
		return entity.CapabilityLexical
	}
}

// 检索参数
const (
	LexicalLimit        = 20
	MaxSentencesPerTalk = 3
	MatchThreshold      = 0.6
	MatchCount          = 20
	TopTalks            = 3
)

// Result 一次检索的结果
type Result struct {
	Mode    Mode                    `json:"mode"`
	Query   string                  `json:"query"`
	Matches []*entity.KeywordMatch  `json:"matches,omitempty"`
	Talks   []*entity.TalkAggregate `json:"talks,omitempty"`
	Answer  *entity.Answer          `json:"answer,omitempty"`
}

// Empty 是否没有可展示的结果；问答模式始终有回答
func (r *Result) Empty() bool {
	switch r.Mode {
	case ModeKeyword:
		return len(r.Matches) == 0
	case ModeSemantic:
		return len(r.Talks) == 0
	default:
		return r.Answer == nil
	}
}
