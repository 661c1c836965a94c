package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

var familyTitles = map[string]string{
	timeseries.FamilyLatency:              "latency ms",
	timeseries.FamilyNodeUsage:            "node usage",
	timeseries.FamilyNodeAllocation:       "node alloc",
	timeseries.FamilyDeploymentUsage:      "deploy usage",
	timeseries.FamilyDeploymentAllocation: "deploy alloc",
	timeseries.FamilyDeploymentPods:       "deploy pods",
}

// RunsPage browses one run and one metric family at a time.
type RunsPage struct {
	runs   []*timeseries.RunResult
	keys   KeyMap
	run    int
	family int
}

// NewRunsPage creates the run browser.
func NewRunsPage(runs []*timeseries.RunResult, keys KeyMap) *RunsPage {
	return &RunsPage{runs: runs, keys: keys}
}

func (p *RunsPage) ID() string    { return PageRuns }
func (p *RunsPage) Init() tea.Cmd { return nil }

// Selection returns the selected run index and family name.
func (p *RunsPage) Selection() (int, string) {
	if len(p.runs) == 0 {
		return 0, ""
	}
	return p.run, p.runs[p.run].Families()[p.family].Name()
}

func (p *RunsPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, nil
	}
	n := len(p.runs)
	switch {
	case key.Matches(km, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(km, p.keys.Summary):
		return nil, &PageNav{PageID: PageSummary}
	case n == 0:
		return nil, nil
	case key.Matches(km, p.keys.NextFamily):
		p.family = (p.family + 1) % len(p.runs[p.run].Families())
	case key.Matches(km, p.keys.PrevFamily):
		families := len(p.runs[p.run].Families())
		p.family = (p.family + families - 1) % families
	case key.Matches(km, p.keys.NextRun):
		p.run = (p.run + 1) % n
	case key.Matches(km, p.keys.PrevRun):
		p.run = (p.run + n - 1) % n
	}
	return nil, nil
}

func (p *RunsPage) View(width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	if len(p.runs) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, mutedStyle.Render("no runs loaded"))
	}

	run := p.runs[p.run]
	families := run.Families()
	f := families[p.family]

	tabs := make([]string, len(families))
	for i, fam := range families {
		style := tabStyle
		if i == p.family {
			style = activeTabStyle
		}
		tabs[i] = style.Render(familyTitles[fam.Name()])
	}

	header := titleStyle.Render(fmt.Sprintf("%s  (%d/%d, %d rounds)", run.Label, p.run+1, len(p.runs), run.Rounds))
	chartHeight := max(4, height-8-min(f.Len(), 6))
	body := roundBars(RoundMeans(f, run.Rounds), width, chartHeight)
	if f.Len() == 0 {
		body = lipgloss.Place(width, chartHeight, lipgloss.Center, lipgloss.Center, mutedStyle.Render("no data for this metric"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		body,
		entityList(f, 6),
		helpLine(p.keys.NextFamily, p.keys.NextRun, p.keys.PrevRun, p.keys.Summary, p.keys.Quit),
	)
}

// RoundMeans averages, per round, every entity with a value at that round.
func RoundMeans(f *timeseries.Family, rounds int) []float64 {
	out := make([]float64, rounds)
	keys := f.Keys()
	for r := range rounds {
		var sum float64
		var count int
		for _, k := range keys {
			if v, ok := f.At(k, r); ok {
				sum += v
				count++
			}
		}
		if count > 0 {
			out[r] = sum / float64(count)
		}
	}
	return out
}

// roundBars draws the most recent rounds that fit in width.
func roundBars(values []float64, width, height int) string {
	maxBars := max(1, (width-1)/2)
	start := max(0, len(values)-maxBars)

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for _, v := range values[start:] {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "mean", Value: v, Style: barStyle}},
		})
	}
	bc.Draw()
	return bc.View()
}

func entityList(f *timeseries.Family, limit int) string {
	var b strings.Builder
	shown := 0
	f.Each(func(entity string, s []float64) {
		if shown >= limit {
			return
		}
		var sum float64
		for _, v := range s {
			sum += v
		}
		mean := 0.0
		if len(s) > 0 {
			mean = sum / float64(len(s))
		}
		fmt.Fprintf(&b, "%s  mean %.3f over %d rounds\n", entityStyle.Render(entity), mean, len(s))
		shown++
	})
	if rest := f.Len() - shown; rest > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("... %d more", rest)))
		b.WriteString("\n")
	}
	return b.String()
}
