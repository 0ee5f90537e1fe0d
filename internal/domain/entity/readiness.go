package entity

import "time"

// Capability 可检测就绪状态的检索能力
type Capability string

const (
	CapabilityLexical    Capability = "lexical"
	CapabilityVector     Capability = "vector"
	CapabilityGeneration Capability = "generation"
)

// Capabilities 全部能力，顺序即页面面板顺序
var Capabilities = []Capability{CapabilityLexical, CapabilityVector, CapabilityGeneration}

// Panel 能力对应的页面面板名
func (c Capability) Panel() string {
	switch c {
	case CapabilityLexical:
		return "keyword"
	case CapabilityVector:
		return "semantic"
	case CapabilityGeneration:
		return "rag"
	default:
		return string(c)
	}
}

// Readiness 就绪状态快照，每次探测整体替换
type Readiness struct {
	Lexical    bool      `json:"lexical"`
	Vector     bool      `json:"vector"`
	Generation bool      `json:"generation"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Ready 查询某项能力是否就绪
func (r *Readiness) Ready(c Capability) bool {
	if r == nil {
		return false
	}
	switch c {
	case CapabilityLexical:
		return r.Lexical
	case CapabilityVector:
		return r.Vector
	case CapabilityGeneration:
		return r.Generation
	default:
		return false
	}
}

// AllReady 三项能力是否全部就绪
func (r *Readiness) AllReady() bool {
	return r != nil && r.Lexical && r.Vector && r.Generation
}
