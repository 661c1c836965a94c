package logparse

import (
	"errors"
	"testing"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

func TestParseLine_Percentile(t *testing.T) {
	t.Parallel()

	r := ParseLine("percentile p90=0.042s")
	if !r.Ok() {
		t.Fatalf("expected measurement, got skip=%v", r.Skip)
	}
	lat, ok := r.Measurement.(model.PercentileLatency)
	if !ok {
		t.Fatalf("measurement type = %T, want PercentileLatency", r.Measurement)
	}
	if lat.Label != "p90" {
		t.Errorf("label = %q, want p90", lat.Label)
	}
	if lat.Millis != 42.0 {
		t.Errorf("millis = %v, want 42", lat.Millis)
	}
}

func TestParseLine_Node(t *testing.T) {
	t.Parallel()

	r := ParseLine("node n1 capacity 100 allocation 50 usage 20")
	node, ok := r.Measurement.(model.NodeStat)
	if !ok {
		t.Fatalf("measurement type = %T, want NodeStat (skip=%v)", r.Measurement, r.Skip)
	}
	want := model.NodeStat{NodeID: "n1", Capacity: 100, Allocation: 50, Usage: 20}
	if node != want {
		t.Errorf("node = %+v, want %+v", node, want)
	}
}

func TestParseLine_Deployment(t *testing.T) {
	t.Parallel()

	r := ParseLine("deployment web allocation 400 usage 100 pods 3")
	dep, ok := r.Measurement.(model.DeploymentStat)
	if !ok {
		t.Fatalf("measurement type = %T, want DeploymentStat (skip=%v)", r.Measurement, r.Skip)
	}
	want := model.DeploymentStat{DeploymentID: "web", Allocation: 400, Usage: 100, Pods: 3}
	if dep != want {
		t.Errorf("deployment = %+v, want %+v", dep, want)
	}
}

func TestParseLine_ErrorMarker(t *testing.T) {
	t.Parallel()

	r := ParseLine("ERROR: Failed to get node list: timeout")
	if !r.IsErrorEvent() {
		t.Fatalf("expected error event, got %+v", r)
	}
	// The error token wins over any other grammar.
	r = ParseLine("node n1 ERROR capacity")
	if !r.IsErrorEvent() {
		t.Fatalf("expected error event for node line with token, got %+v", r)
	}
}

func TestParseLine_Ignored(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"", "   ", "Round 3", "Round 12: starting"} {
		if r := ParseLine(line); !r.Ignored() {
			t.Errorf("ParseLine(%q) = %+v, want ignored", line, r)
		}
	}
}

func TestParseLine_Skips(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want error
	}{
		{"node n2 capacity", model.ErrMalformedLine},
		{"node n2 capacity x allocation 1 usage 1", model.ErrMalformedLine},
		{"node n2 allocation 1 capacity 1 usage 1", model.ErrMalformedLine},
		{"deployment web allocation 1 usage 2", model.ErrMalformedLine},
		{"percentile p99", model.ErrMalformedLine},
		{"percentile p99=abcs", model.ErrMalformedLine},
		{"percentile =0.1s", model.ErrMalformedLine},
		{"percentile p99 latency 12", model.ErrMalformedLine},
		{"=== Round completed ===", model.ErrUnrecognizedLine},
		{"nodes total 5", model.ErrUnrecognizedLine},
	}
	for _, tc := range cases {
		r := ParseLine(tc.line)
		if !r.Skipped() {
			t.Errorf("ParseLine(%q) not skipped: %+v", tc.line, r)
			continue
		}
		if !errors.Is(r.Skip, tc.want) {
			t.Errorf("ParseLine(%q) skip = %v, want %v", tc.line, r.Skip, tc.want)
		}
	}
}

func TestParseRound_MalformedLineDoesNotStopRound(t *testing.T) {
	t.Parallel()

	results := ParseRound([]string{
		"Round 0",
		"node n2 capacity",
		"node n1 capacity 100 allocation 50 usage 20",
		"percentile p90=0.05s",
	})
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	if !results[1].Skipped() {
		t.Errorf("malformed node line not skipped: %+v", results[1])
	}
	if !results[2].Ok() || !results[3].Ok() {
		t.Errorf("lines after malformed line were not parsed: %+v %+v", results[2], results[3])
	}
}

func TestIsRoundMarker(t *testing.T) {
	t.Parallel()

	if !IsRoundMarker("Round 0") || !IsRoundMarker("Round\t7:") {
		t.Error("expected markers to match")
	}
	for _, line := range []string{"Round", "Rounds 3", " Round 1", "round 1", "Round x"} {
		if IsRoundMarker(line) {
			t.Errorf("IsRoundMarker(%q) = true, want false", line)
		}
	}
}
