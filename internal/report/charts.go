// Package report turns runs and comparisons into chart sets and summaries.
package report

import (
	"errors"
	"fmt"
	"log"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/chart"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

const xLabel = "Time (minutes)"

// familyAxis maps a family to its chart title and y axis label.
var familyAxis = map[string][2]string{
	timeseries.FamilyLatency:              {"Latency percentiles", "Latency (ms)"},
	timeseries.FamilyNodeUsage:            {"Node usage", "Usage / capacity"},
	timeseries.FamilyNodeAllocation:       {"Node allocation", "Allocation / capacity"},
	timeseries.FamilyDeploymentUsage:      {"Deployment usage", "Usage / allocation"},
	timeseries.FamilyDeploymentAllocation: {"Deployment allocation", "Allocation"},
	timeseries.FamilyDeploymentPods:       {"Deployment pods", "Pods"},
}

// minutes returns the x values for n rounds spaced interval minutes apart.
func minutes(n int, interval float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) * interval
	}
	return xs
}

// RunCharts returns one chart per family of run, each entity a line.
func RunCharts(run *timeseries.RunResult, interval float64) []chart.Chart {
	var charts []chart.Chart
	for _, f := range run.Families() {
		axis := familyAxis[f.Name()]
		c := chart.Chart{
			Name:   run.Label + "_" + f.Name(),
			Title:  fmt.Sprintf("%s (%s)", axis[0], run.Label),
			XLabel: xLabel,
			YLabel: axis[1],
		}
		f.Each(func(entity string, s []float64) {
			c.Series = append(c.Series, chart.Series{
				Name: entity,
				X:    minutes(len(s), interval),
				Y:    append([]float64(nil), s...),
			})
		})
		charts = append(charts, c)
	}
	return charts
}

// ComparisonCharts returns one latency chart per percentile, each carrying
// the SLO line, plus the three per-round average charts.
func ComparisonCharts(c *aggregate.Comparison, interval float64) []chart.Chart {
	var charts []chart.Chart
	for _, g := range c.Latency {
		ch := chart.Chart{
			Name:   "compare_latency_" + g.Percentile,
			Title:  fmt.Sprintf("%s latency by run", g.Percentile),
			XLabel: xLabel,
			YLabel: "Latency (ms)",
			Series: frameSeries(g.Frames, interval),
		}
		if c.SLOMillis > 0 && c.MinRounds > 0 {
			end := float64(max(c.MinRounds-1, 1)) * interval
			ch.Series = append(ch.Series, chart.Series{
				Name:   fmt.Sprintf("SLO %gms", c.SLOMillis),
				X:      []float64{0, end},
				Y:      []float64{c.SLOMillis, c.SLOMillis},
				Dashed: true,
			})
		}
		charts = append(charts, ch)
	}
	charts = append(charts,
		chart.Chart{
			Name:   "compare_deployment_usage",
			Title:  "Average usage of active deployments",
			XLabel: xLabel,
			YLabel: "Usage / allocation",
			Series: frameSeries(c.DeploymentUsage, interval),
		},
		chart.Chart{
			Name:   "compare_deployment_allocation",
			Title:  "Average deployment allocation",
			XLabel: xLabel,
			YLabel: "Allocation",
			Series: frameSeries(c.DeploymentAllocation, interval),
		},
		chart.Chart{
			Name:   "compare_node_usage",
			Title:  "Average usage of busy nodes",
			XLabel: xLabel,
			YLabel: "Usage / capacity",
			Series: frameSeries(c.NodeUsage, interval),
		},
	)
	return charts
}

func frameSeries(frames []aggregate.Frame, interval float64) []chart.Series {
	out := make([]chart.Series, 0, len(frames))
	for _, f := range frames {
		out = append(out, chart.Series{
			Name: f.Label,
			X:    minutes(len(f.Values), interval),
			Y:    append([]float64(nil), f.Values...),
		})
	}
	return out
}

// RenderAll renders every chart into sink. Charts without data are logged
// and skipped; other failures are collected and returned together.
func RenderAll(sink chart.Sink, charts []chart.Chart) ([]string, error) {
	var paths []string
	var errs []error
	for _, c := range charts {
		path, err := sink.Render(c)
		switch {
		case errors.Is(err, chart.ErrNoData):
			log.Printf("report: skipping %s: no data", c.Name)
		case err != nil:
			errs = append(errs, err)
		default:
			paths = append(paths, path)
		}
	}
	return paths, errors.Join(errs...)
}
