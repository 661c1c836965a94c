package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

// PNGSink writes each chart as <dir>/<name>.png.
type PNGSink struct {
	Dir    string
	Width  int
	Height int
}

// NewPNGSink creates dir if needed and returns a sink writing into it.
func NewPNGSink(dir string, width, height int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("chart: mkdir %s: %w", dir, err)
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &PNGSink{Dir: dir, Width: width, Height: height}, nil
}

// Render draws c and writes it to the sink directory.
func (s *PNGSink) Render(c Chart) (string, error) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, c, s.Width, s.Height); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, FileName(c.Name)+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("chart: write %s: %w", path, err)
	}
	return path, nil
}

// RenderPNG draws c as a PNG image into w.
func RenderPNG(w io.Writer, c Chart, width, height int) error {
	if c.Points() == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, c.Name)
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	maxY := -math.MaxFloat64
	minY := 0.0
	var series []gochart.Series
	colorIdx := 0
	for _, s := range c.Series {
		n := min(len(s.X), len(s.Y))
		if n == 0 {
			continue
		}
		xs := append([]float64(nil), s.X[:n]...)
		ys := append([]float64(nil), s.Y[:n]...)
		for i := range n {
			minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
			minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
		}
		// A single point cannot span the x axis; stretch it into a flat segment.
		if n == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
			maxX = math.Max(maxX, xs[1])
		}

		st := gochart.Style{StrokeWidth: 2}
		if s.Dashed {
			st.StrokeColor = gochart.ColorRed
			st.StrokeDashArray = []float64{6, 4}
		} else {
			st.StrokeColor = gochart.GetDefaultColor(colorIdx)
			colorIdx++
		}
		series = append(series, gochart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: st})
	}

	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	maxY += (maxY - minY) * 0.1

	ch := gochart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis:      gochart.XAxis{Name: c.XLabel, Range: &gochart.ContinuousRange{Min: minX, Max: maxX}},
		YAxis:      gochart.YAxis{Name: c.YLabel, Range: &gochart.ContinuousRange{Min: minY, Max: maxY}},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart: render %s: %w", c.Name, err)
	}
	return nil
}
