package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

func writeRunFile(t *testing.T, dir, name string, rounds ...[]string) string {
	t.Helper()
	var b strings.Builder
	for _, r := range rounds {
		b.WriteString("---\n")
		for _, line := range r {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestProcessFileBuildsSeries(t *testing.T) {
	t.Parallel()

	path := writeRunFile(t, t.TempDir(), "auto.txt",
		[]string{"Round 0", "percentile p90=0.05s", "node n1 capacity 100 allocation 50 usage 20"},
		[]string{"Round 1", "percentile p90=0.06s", "node n1 capacity 100 allocation 50 usage 40", "garbage line"},
	)

	res, err := ProcessFile(path, "auto", Options{})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if res.Run.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", res.Run.Rounds)
	}
	lat, _ := res.Run.Latency.Get("p90")
	if !reflect.DeepEqual(lat, []float64{50, 60}) {
		t.Errorf("p90 = %v, want [50 60]", lat)
	}
	usage, _ := res.Run.NodeUsage.Get("n1")
	if !reflect.DeepEqual(usage, []float64{0.2, 0.4}) {
		t.Errorf("node usage = %v, want [0.2 0.4]", usage)
	}
	if res.Report.Skipped != 1 || len(res.Report.Diagnostics) != 1 {
		t.Errorf("report = %+v, want one skipped line", res.Report)
	}
	if !errors.Is(res.Report.Diagnostics[0].Err, model.ErrUnrecognizedLine) {
		t.Errorf("diagnostic err = %v", res.Report.Diagnostics[0].Err)
	}
	if res.Report.Diagnostics[0].Round != 1 {
		t.Errorf("diagnostic round = %d, want 1", res.Report.Diagnostics[0].Round)
	}
}

func TestProcessRoundIgnoresMarkerInteger(t *testing.T) {
	t.Parallel()

	p := NewProcessor("x", Options{})
	for _, r := range [][]string{
		{"Round 7", "percentile p50=0.01s"},
		{"Round 3", "percentile p50=0.02s"},
	} {
		if err := p.ProcessRound(r); err != nil {
			t.Fatalf("ProcessRound: %v", err)
		}
	}
	run, _ := p.Finish()
	if run.Rounds != 2 {
		t.Fatalf("Rounds = %d, want 2", run.Rounds)
	}
	got, _ := run.Latency.Get("p50")
	if !reflect.DeepEqual(got, []float64{10, 20}) {
		t.Fatalf("p50 = %v, want [10 20]", got)
	}
}

func TestProcessRoundErrorMarkerPolicy(t *testing.T) {
	t.Parallel()

	round := []string{"Round 0", "ERROR failed to fetch metrics for node n2", "percentile p90=0.05s"}

	cont := NewProcessor("c", Options{Policy: PolicyContinue})
	if err := cont.ProcessRound(round); err != nil {
		t.Fatalf("continue policy returned %v", err)
	}
	run, report := cont.Finish()
	if report.ErrorMarkers != 1 {
		t.Errorf("ErrorMarkers = %d, want 1", report.ErrorMarkers)
	}
	if _, ok := run.Latency.Get("p90"); !ok {
		t.Error("measurement after the error marker was not recorded")
	}

	abort := NewProcessor("a", Options{Policy: PolicyAbort})
	if err := abort.ProcessRound(round); !errors.Is(err, model.ErrErrorMarker) {
		t.Fatalf("abort policy err = %v, want ErrErrorMarker", err)
	}
}

func TestProcessRoundCountsZeroDenominators(t *testing.T) {
	t.Parallel()

	p := NewProcessor("z", Options{})
	if err := p.ProcessRound([]string{"Round 0", "node n1 capacity 0 allocation 0 usage 0"}); err != nil {
		t.Fatalf("ProcessRound: %v", err)
	}
	_, report := p.Finish()
	if report.ZeroDenominators != 1 {
		t.Fatalf("ZeroDenominators = %d, want 1", report.ZeroDenominators)
	}
}

func TestProcessFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ProcessFile(filepath.Join(t.TempDir(), "missing.txt"), "m", Options{})
	if !errors.Is(err, model.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ErrorPolicy{"": PolicyContinue, "continue": PolicyContinue, "ABORT": PolicyAbort} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("ignore"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestLoadRunsPreservesOrderAndSkipsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeRunFile(t, dir, "a.txt", []string{"Round 0", "percentile p90=0.1s"})
	b := writeRunFile(t, dir, "b.txt", []string{"Round 0", "percentile p90=0.2s"}, []string{"Round 1"})

	gone := Input{Path: filepath.Join(dir, "nope.txt"), Label: "gone"}
	results, skipped, err := LoadRuns(context.Background(), []Input{
		{Path: a, Label: "first"},
		gone,
		{Path: b, Label: "second"},
	}, Options{})
	if err != nil {
		t.Fatalf("LoadRuns: %v", err)
	}
	if !reflect.DeepEqual(skipped, []Input{gone}) {
		t.Errorf("skipped = %+v, want %+v", skipped, gone)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Run.Label != "first" || results[1].Run.Label != "second" {
		t.Errorf("labels = %q, %q", results[0].Run.Label, results[1].Run.Label)
	}
	if results[1].Run.Rounds != 2 {
		t.Errorf("second Rounds = %d, want 2", results[1].Run.Rounds)
	}
}

func TestLoadRunsAllMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, skipped, err := LoadRuns(context.Background(), []Input{
		{Path: filepath.Join(dir, "x.txt"), Label: "x"},
		{Path: filepath.Join(dir, "y.txt"), Label: "y"},
	}, Options{})
	if !errors.Is(err, model.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	if len(skipped) != 2 {
		t.Errorf("skipped = %d, want 2", len(skipped))
	}
}

func TestLoadRunsAbortFails(t *testing.T) {
	t.Parallel()

	path := writeRunFile(t, t.TempDir(), "bad.txt", []string{"Round 0", "ERROR boom"})
	_, _, err := LoadRuns(context.Background(), []Input{{Path: path, Label: "bad"}}, Options{Policy: PolicyAbort})
	if !errors.Is(err, model.ErrErrorMarker) {
		t.Fatalf("err = %v, want ErrErrorMarker", err)
	}
}
