package handler

import (
	"html/template"

	"conference-rag/internal/application/search"
	"conference-rag/internal/application/setup"
	"conference-rag/internal/domain/entity"
	"conference-rag/internal/interfaces/http/render"
)

// pageView 页面模板数据
type pageView struct {
	AppName       string
	Authenticated bool
	UserEmail     string
	Flash         *entity.FlashMessage
	Banner        bannerView
	Panels        []*panelView
	Searching     template.HTML
}

// bannerView 配置诊断横幅
type bannerView struct {
	Visible      bool
	Items        []setup.CheckItem
	PublicURL    string
	DashboardURL string
	GuideURL     string
}

// panelView 单个检索面板
type panelView struct {
	Name        string
	Mode        search.Mode
	Title       string
	Description string
	Placeholder string
	Button      string
	Ready       bool
	Query       string
	Results     template.HTML
}

// BadgeText 就绪徽标文本
func (p *panelView) BadgeText() string {
	if p.Ready {
		return "🟢 Ready"
	}
	return "🔴 Not Ready"
}

// BadgeClass 就绪徽标样式
func (p *panelView) BadgeClass() string {
	if p.Ready {
		return "status-badge ready"
	}
	return "status-badge not-ready"
}

// PanelClass 面板样式
func (p *panelView) PanelClass() string {
	if p.Ready {
		return "panel-ready"
	}
	return "panel-not-ready"
}

func newPanels(readiness *entity.Readiness) []*panelView {
	panels := []*panelView{
		{
			Mode:        search.ModeKeyword,
			Title:       "🔍 Keyword Search",
			Description: "Find sentences containing your exact words.",
			Placeholder: "e.g. faith",
			Button:      "Search",
		},
		{
			Mode:        search.ModeSemantic,
			Title:       "🧠 Semantic Search",
			Description: "Find talks about an idea, even when the words differ.",
			Placeholder: "e.g. how to find peace in hard times",
			Button:      "Search",
		},
		{
			Mode:        search.ModeAsk,
			Title:       "🤖 Ask a Question",
			Description: "Get an answer grounded in the most relevant talks.",
			Placeholder: "e.g. What do speakers say about gratitude?",
			Button:      "Ask",
		},
	}
	for _, p := range panels {
		c := p.Mode.Capability()
		p.Name = c.Panel()
		p.Ready = readiness.Ready(c)
	}
	return panels
}

// resultsHTML 检索结果片段
func resultsHTML(res *search.Result) template.HTML {
	switch res.Mode {
	case search.ModeSemantic:
		return render.SemanticResults(res.Talks)
	case search.ModeAsk:
		return render.AnswerResults(res.Answer)
	default:
		return render.KeywordResults(res.Matches, res.Query)
	}
}
