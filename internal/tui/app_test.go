package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

func testRun(t *testing.T, label string) *timeseries.RunResult {
	t.Helper()
	s := timeseries.NewStore()
	for r, usage := range []int64{20, 40, 60} {
		s.BeginRound(r)
		for _, m := range []model.Measurement{
			model.PercentileLatency{Label: "p90", Millis: float64(50 + r)},
			model.NodeStat{NodeID: "n1", Capacity: 100, Allocation: 50, Usage: usage},
		} {
			if err := s.Observe(r, m); err != nil {
				t.Fatalf("Observe: %v", err)
			}
		}
	}
	return s.Finalize(label)
}

func newTestViewer(t *testing.T) *App {
	t.Helper()
	runs := []*timeseries.RunResult{testRun(t, "auto"), testRun(t, "hpa")}
	cmp, err := aggregate.Compare(runs, aggregate.DefaultConfig())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	app := NewViewer(runs, cmp)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

func TestViewerSwitchesPages(t *testing.T) {
	app := newTestViewer(t)
	if app.ActivePage() != PageRuns {
		t.Fatalf("initial page = %q", app.ActivePage())
	}

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if app.ActivePage() != PageSummary {
		t.Fatalf("page after s = %q, want summary", app.ActivePage())
	}
	if view := app.View(); !strings.Contains(view, "auto") || !strings.Contains(view, "hpa") {
		t.Errorf("summary view missing labels:\n%s", view)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.ActivePage() != PageRuns {
		t.Fatalf("page after esc = %q, want runs", app.ActivePage())
	}
}

func TestRunsPageNavigation(t *testing.T) {
	runs := []*timeseries.RunResult{testRun(t, "auto"), testRun(t, "hpa")}
	p := NewRunsPage(runs, DefaultKeyMap())

	p.Update(tea.KeyMsg{Type: tea.KeyTab})
	if _, fam := p.Selection(); fam != timeseries.FamilyNodeUsage {
		t.Errorf("family after tab = %q, want node_usage", fam)
	}
	p.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	p.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if _, fam := p.Selection(); fam != timeseries.FamilyDeploymentPods {
		t.Errorf("family after wrap = %q, want deployment_pods", fam)
	}

	p.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if run, _ := p.Selection(); run != 1 {
		t.Errorf("run after left = %d, want 1 (wrapped)", run)
	}
	if view := p.View(100, 30); !strings.Contains(view, "hpa") {
		t.Errorf("view missing selected run label:\n%s", view)
	}
}

func TestRunsPageQuit(t *testing.T) {
	p := NewRunsPage(nil, DefaultKeyMap())
	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("command is not tea.Quit")
	}
	if view := p.View(40, 10); !strings.Contains(view, "no runs loaded") {
		t.Errorf("empty view = %q", view)
	}
}

func TestRoundMeans(t *testing.T) {
	f := timeseries.NewFamily(timeseries.FamilyNodeUsage)
	_ = f.Append("a", 0, 0.2)
	_ = f.Append("b", 0, 0.4)
	_ = f.Append("a", 1, 0.6)

	got := RoundMeans(f, 3)
	want := []float64{0.30000000000000004, 0.6, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RoundMeans = %v, want %v", got, want)
	}
}
