package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4AA"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	barStyles   = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Background(lipgloss.Color("208")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Background(lipgloss.Color("42")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Background(lipgloss.Color("201")),
	}
)

// SummaryRows returns the summary as a header and one row per run.
func SummaryRows(c *aggregate.Comparison) ([]string, [][]string) {
	header := []string{"run", "rounds"}
	for _, g := range c.Latency {
		header = append(header, "avg "+g.Percentile+" (ms)")
	}
	header = append(header, "deploy usage", "deploy alloc", "node usage")

	rows := make([][]string, 0, len(c.Summaries))
	for _, s := range c.Summaries {
		lat := make(map[string]float64, len(s.Latency))
		for _, nv := range s.Latency {
			lat[nv.Name] = nv.Value
		}
		row := []string{s.Label, fmt.Sprintf("%d/%d", min(s.Rounds, c.MinRounds), s.Rounds)}
		for _, g := range c.Latency {
			if v, ok := lat[g.Percentile]; ok {
				row = append(row, fmt.Sprintf("%.2f", v))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row,
			fmt.Sprintf("%.2f%%", s.DeploymentUsage*100),
			fmt.Sprintf("%.1f", s.DeploymentAllocation),
			fmt.Sprintf("%.2f%%", s.NodeUsage*100),
		)
		rows = append(rows, row)
	}
	return header, rows
}

// WriteSummary writes the per-run means as an aligned table.
func WriteSummary(w io.Writer, c *aggregate.Comparison) error {
	header, rows := SummaryRows(c)
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Summary over %d common rounds", c.MinRounds)))
	b.WriteString("\n")
	b.WriteString(renderRow(header, widths, true))
	for _, row := range rows {
		b.WriteString(renderRow(row, widths, false))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderRow(cells []string, widths []int, header bool) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		st := cellStyle.Width(widths[i] + 2)
		switch {
		case header:
			st = st.Inherit(headerStyle)
		case i == 0:
			st = st.Inherit(labelStyle)
		}
		parts[i] = st.Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

// SummaryBars draws the busy node usage and active deployment usage means of
// every run as terminal bar charts.
func SummaryBars(c *aggregate.Comparison, width, height int) string {
	if len(c.Summaries) == 0 {
		return ""
	}
	node := make([]float64, len(c.Summaries))
	dep := make([]float64, len(c.Summaries))
	for i, s := range c.Summaries {
		node[i] = s.NodeUsage * 100
		dep[i] = s.DeploymentUsage * 100
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Node usage (%)"),
		Bars(c.Labels(), node, width, height),
		titleStyle.Render("Deployment usage (%)"),
		Bars(c.Labels(), dep, width, height),
	)
}

// Bars renders one labeled bar per value.
func Bars(labels []string, values []float64, width, height int) string {
	if width <= 0 || height <= 0 || len(values) == 0 {
		return ""
	}
	barWidth := max(1, min(8, width/(2*len(values))))
	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
	)
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		bc.Push(barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: label, Value: v, Style: barStyles[i%len(barStyles)]},
			},
		})
	}
	bc.Draw()
	return bc.View()
}
