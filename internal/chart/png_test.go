package chart

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestPNGSinkRendersFile(t *testing.T) {
	t.Parallel()

	sink, err := NewPNGSink(filepath.Join(t.TempDir(), "graphs"), 400, 300)
	if err != nil {
		t.Fatalf("NewPNGSink: %v", err)
	}
	path, err := sink.Render(Chart{
		Name:   "latency p90",
		Title:  "p90 latency",
		XLabel: "minutes",
		YLabel: "ms",
		Series: []Series{
			{Name: "auto", X: []float64{0, 1, 2}, Y: []float64{40, 55, 60}},
			{Name: "SLO", X: []float64{0, 2}, Y: []float64{100, 100}, Dashed: true},
		},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if filepath.Base(path) != "latency_p90.png" {
		t.Errorf("path = %s, want latency_p90.png", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("image size = %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestRenderPNGSinglePointAndFlatSeries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := RenderPNG(&buf, Chart{
		Name:   "flat",
		Series: []Series{{Name: "idle", X: []float64{0}, Y: []float64{0}}},
	}, 300, 200)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty PNG output")
	}
}

func TestRenderPNGNoData(t *testing.T) {
	t.Parallel()

	err := RenderPNG(&bytes.Buffer{}, Chart{Name: "empty", Series: []Series{{Name: "x"}}}, 300, 200)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"latency p99":        "latency_p99",
		"node/usage:auto":    "node_usage_auto",
		"   ":                "chart",
		"deployment_pods.v2": "deployment_pods.v2",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
