package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/report"
)

// SummaryPage shows the cross-run summary table and bars in a scrollable view.
type SummaryPage struct {
	cmp      *aggregate.Comparison
	keys     KeyMap
	viewport viewport.Model
	width    int
}

// NewSummaryPage creates the summary page. cmp may be nil.
func NewSummaryPage(cmp *aggregate.Comparison, keys KeyMap) *SummaryPage {
	p := &SummaryPage{
		cmp:      cmp,
		keys:     keys,
		viewport: viewport.New(80, 20),
		width:    80,
	}
	p.refresh()
	return p
}

func (p *SummaryPage) ID() string    { return PageSummary }
func (p *SummaryPage) Init() tea.Cmd { return nil }

func (p *SummaryPage) refresh() {
	if p.cmp == nil {
		p.viewport.SetContent(mutedStyle.Render("no comparison available"))
		return
	}
	var b strings.Builder
	_ = report.WriteSummary(&b, p.cmp)
	b.WriteString("\n")
	b.WriteString(report.SummaryBars(p.cmp, max(20, p.width-2), 8))
	p.viewport.SetContent(b.String())
}

func (p *SummaryPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.viewport.Width = msg.Width
		p.viewport.Height = max(3, msg.Height-2)
		p.refresh()
		return nil, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Back):
			return nil, &PageNav{PageID: PageRuns}
		}
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd, nil
}

func (p *SummaryPage) View(width, height int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		p.viewport.View(),
		helpLine(p.keys.Up, p.keys.Down, p.keys.Back, p.keys.Quit),
	)
}
