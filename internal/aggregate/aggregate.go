// Package aggregate compares labeled runs over their common prefix of rounds.
package aggregate

import (
	"errors"

	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

// Config tunes the comparison.
type Config struct {
	// ActivityThreshold is the usage ratio a deployment must exceed in a round
	// to count towards that round's usage average.
	ActivityThreshold float64
	// SLOMillis is the latency reference drawn on comparative charts.
	SLOMillis float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ActivityThreshold: model.DefaultActivityThreshold,
		SLOMillis:         model.DefaultSLOMillis,
	}
}

// Frame is one run's per-round series.
type Frame struct {
	Label  string
	Values []float64
}

// LatencyGroup holds every run's series for one percentile.
type LatencyGroup struct {
	Percentile string
	Frames     []Frame
}

// NamedValue is a labeled scalar.
type NamedValue struct {
	Name  string
	Value float64
}

// Summary holds the all-rounds means of one run.
type Summary struct {
	Label                string
	Rounds               int
	Latency              []NamedValue
	DeploymentUsage      float64
	DeploymentAllocation float64
	NodeUsage            float64
}

// Comparison is the cross-run result. Every series has at most MinRounds
// values.
type Comparison struct {
	MinRounds int
	SLOMillis float64

	Latency              []LatencyGroup
	DeploymentUsage      []Frame
	DeploymentAllocation []Frame
	NodeUsage            []Frame

	Summaries []Summary
}

// Labels returns the run labels in input order.
func (c *Comparison) Labels() []string {
	out := make([]string, len(c.Summaries))
	for i, s := range c.Summaries {
		out[i] = s.Label
	}
	return out
}

// Compare joins runs into a Comparison. Runs are read, never modified.
func Compare(runs []*timeseries.RunResult, cfg Config) (*Comparison, error) {
	if len(runs) == 0 {
		return nil, errors.New("aggregate: no runs to compare")
	}
	minRounds := runs[0].Rounds
	for _, r := range runs[1:] {
		minRounds = min(minRounds, r.Rounds)
	}

	c := &Comparison{
		MinRounds: minRounds,
		SLOMillis: cfg.SLOMillis,
		Latency:   latencyGroups(runs, minRounds),
	}
	for _, run := range runs {
		depUsage := activeAverage(run.DeploymentUsage, minRounds, func(v float64) bool { return v > cfg.ActivityThreshold })
		depAlloc := presentAverage(run.DeploymentAllocation, minRounds)
		nodeUsage := activeAverage(run.NodeUsage, minRounds, func(v float64) bool { return v > 0 })

		c.DeploymentUsage = append(c.DeploymentUsage, Frame{Label: run.Label, Values: depUsage})
		c.DeploymentAllocation = append(c.DeploymentAllocation, Frame{Label: run.Label, Values: depAlloc})
		c.NodeUsage = append(c.NodeUsage, Frame{Label: run.Label, Values: nodeUsage})

		s := Summary{
			Label:                run.Label,
			Rounds:               run.Rounds,
			DeploymentUsage:      mean(depUsage),
			DeploymentAllocation: mean(depAlloc),
			NodeUsage:            mean(nodeUsage),
		}
		run.Latency.Each(func(p string, series []float64) {
			s.Latency = append(s.Latency, NamedValue{Name: p, Value: mean(truncate(series, minRounds))})
		})
		c.Summaries = append(c.Summaries, s)
	}
	return c, nil
}

// latencyGroups groups latency series by percentile in first-seen order
// across runs. A run without the percentile gets no frame in that group.
func latencyGroups(runs []*timeseries.RunResult, n int) []LatencyGroup {
	var groups []LatencyGroup
	index := make(map[string]int)
	for _, run := range runs {
		run.Latency.Each(func(p string, series []float64) {
			i, ok := index[p]
			if !ok {
				i = len(groups)
				index[p] = i
				groups = append(groups, LatencyGroup{Percentile: p})
			}
			groups[i].Frames = append(groups[i].Frames, Frame{Label: run.Label, Values: truncate(series, n)})
		})
	}
	return groups
}

// activeAverage averages, per round, the values that satisfy active.
// A round with no active entity averages to zero.
func activeAverage(f *timeseries.Family, n int, active func(float64) bool) []float64 {
	out := make([]float64, n)
	keys := f.Keys()
	for r := range n {
		var sum float64
		var count int
		for _, id := range keys {
			if v, ok := f.At(id, r); ok && active(v) {
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

// presentAverage averages, per round, every entity with a value at that
// round, padding included. Entities whose series ended earlier are left out.
func presentAverage(f *timeseries.Family, n int) []float64 {
	return activeAverage(f, n, func(float64) bool { return true })
}

func truncate(series []float64, n int) []float64 {
	if len(series) > n {
		series = series[:n]
	}
	return append([]float64(nil), series...)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
