// Package render 把检索结果渲染为 HTML 片段，所有外部文本都先转义
package render

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"conference-rag/internal/domain/entity"
)

// 空结果提示
const (
	NoKeywordResults  = "No results found. Try different keywords."
	NoSemanticResults = "No similar content found. Try a different query."
)

// EscapeHTML 转义文本，使其只能作为字面文本出现
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// HighlightKeyword 转义文本并用 <mark> 包裹关键词（大小写不敏感，保留原文大小写）
// 在原文上匹配后逐段转义，关键词不会命中实体编码
func HighlightKeyword(text, keyword string) template.HTML {
	if keyword == "" {
		return template.HTML(EscapeHTML(text))
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(keyword))
	if err != nil {
		return template.HTML(EscapeHTML(text))
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		b.WriteString(EscapeHTML(text[last:loc[0]]))
		b.WriteString("<mark>")
		b.WriteString(EscapeHTML(text[loc[0]:loc[1]]))
		b.WriteString("</mark>")
		last = loc[1]
	}
	b.WriteString(EscapeHTML(text[last:]))
	return template.HTML(b.String())
}

// KeywordResults 关键词检索结果卡片
func KeywordResults(matches []*entity.KeywordMatch, keyword string) template.HTML {
	if len(matches) == 0 {
		return NoResults(NoKeywordResults)
	}
	var b strings.Builder
	for _, m := range matches {
		sentences := make([]string, 0, len(m.Sentences))
		for _, s := range m.Sentences {
			sentences = append(sentences, string(HighlightKeyword(s, keyword)))
		}
		card(&b, "result-card", m.Title, m.Speaker, strings.Join(sentences, "<br>"))
	}
	return template.HTML(b.String())
}

// SemanticResults 语义检索结果卡片
func SemanticResults(talks []*entity.TalkAggregate) template.HTML {
	if len(talks) == 0 {
		return NoResults(NoSemanticResults)
	}
	var b strings.Builder
	for _, t := range talks {
		card(&b, "result-card", t.Title, t.Speaker, EscapeHTML(t.Text))
	}
	return template.HTML(b.String())
}

// AnswerResults 回答与来源列表
func AnswerResults(answer *entity.Answer) template.HTML {
	if answer == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="result-card rag-answer">`)
	b.WriteString(`<div class="result-title">AI Answer</div>`)
	b.WriteString(`<div class="result-sentences">`)
	b.WriteString(EscapeHTML(answer.Text))
	b.WriteString(`</div></div>`)

	b.WriteString(`<div class="result-sources"><strong>Sources:</strong></div>`)
	for _, src := range answer.Sources {
		b.WriteString(`<div class="result-card result-source">`)
		b.WriteString(`<div class="result-title">` + EscapeHTML(src.Title) + `</div>`)
		b.WriteString(`<div class="result-speaker">by ` + EscapeHTML(src.Speaker) + `</div>`)
		b.WriteString(`</div>`)
	}
	return template.HTML(b.String())
}

// NoResults 空结果提示
func NoResults(message string) template.HTML {
	return template.HTML(`<div class="no-results">` + EscapeHTML(message) + `</div>`)
}

// ErrorResult 错误提示
func ErrorResult(message string) template.HTML {
	return template.HTML(`<div class="result-error">Error: ` + EscapeHTML(message) + `</div>`)
}

// Searching 检索中状态
func Searching() template.HTML {
	return `<div class="searching">Searching...</div>`
}

// card body 须已转义
func card(b *strings.Builder, class, title, speaker, body string) {
	b.WriteString(`<div class="` + class + `">`)
	b.WriteString(`<div class="result-title">` + EscapeHTML(title) + `</div>`)
	b.WriteString(`<div class="result-speaker">by ` + EscapeHTML(speaker) + `</div>`)
	b.WriteString(`<div class="result-sentences">` + body + `</div>`)
	b.WriteString(`</div>`)
}
