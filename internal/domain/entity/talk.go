package entity

// 缺省展示值
const (
	UnknownTalk    = "Unknown Talk"
	UnknownSpeaker = "Unknown Speaker"
)

// TalkAggregate 单次检索内按演讲合并后的结果
type TalkAggregate struct {
	TalkID          TalkID   `json:"talk_id"`
	Title           string   `json:"title"`
	Speaker         string   `json:"speaker"`
	Sentences       []string `json:"sentences"`
	TotalSimilarity float64  `json:"total_similarity"`
	// Text 句子按到达顺序以单个空格拼接
	Text string `json:"text"`
}

// SentenceCount 贡献句子数
func (t *TalkAggregate) SentenceCount() int {
	return len(t.Sentences)
}

// ContextTalk 转为回答生成的上下文条目
func (t *TalkAggregate) ContextTalk() ContextTalk {
	return ContextTalk{Title: t.Title, Speaker: t.Speaker, Text: t.Text}
}

// ContextTalk 发送给回答生成函数的上下文条目
type ContextTalk struct {
	Title   string `json:"title"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// KeywordMatch 关键词检索中按演讲分组的命中
// Sentences 为原始文本，高亮由渲染层完成
type KeywordMatch struct {
	TalkID    TalkID   `json:"talk_id"`
	Title     string   `json:"title"`
	Speaker   string   `json:"speaker"`
	Sentences []string `json:"sentences"`
}

// Answer 问答结果
type Answer struct {
	Text    string        `json:"answer"`
	Sources []ContextTalk `json:"sources"`
}
