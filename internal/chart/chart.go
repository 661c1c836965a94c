// Package chart renders line charts of per-round series.
package chart

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoData is returned for a chart without a single plottable point.
var ErrNoData = errors.New("chart: no data")

// Series is one named line.
type Series struct {
	Name   string
	X      []float64
	Y      []float64
	Dashed bool // reference lines such as an SLO
}

// Chart describes one chart independent of how it is rendered.
type Chart struct {
	// Name is the file stem the chart is stored under.
	Name   string
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

// Points returns the number of plottable points across all series.
func (c Chart) Points() int {
	n := 0
	for _, s := range c.Series {
		n += min(len(s.X), len(s.Y))
	}
	return n
}

// Sink stores rendered charts and returns where each one went.
type Sink interface {
	Render(c Chart) (string, error)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName turns a chart name into a safe file stem.
func FileName(name string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if s == "" {
		return "chart"
	}
	return s
}
