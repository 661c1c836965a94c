package logparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// Result is the outcome of parsing one line.
// Exactly one of three shapes is returned:
//   - Ok: Measurement is set, Skip is nil.
//   - Skip: Measurement is nil, Skip explains why the line produced nothing.
//   - Ignored: both are nil (blank lines and round markers carry no value).
type Result struct {
	Line        string
	Measurement model.Measurement
	Skip        error
}

// Ok reports whether the line produced a measurement.
func (r Result) Ok() bool { return r.Measurement != nil }

// Skipped reports whether the line was rejected with a warning.
func (r Result) Skipped() bool { return r.Skip != nil }

// Ignored reports whether the line is structural and carries no value.
func (r Result) Ignored() bool { return r.Measurement == nil && r.Skip == nil }

// IsErrorEvent reports whether the line carried the error marker.
func (r Result) IsErrorEvent() bool {
	_, ok := r.Measurement.(model.ErrorEvent)
	return ok
}

func ok(line string, m model.Measurement) Result {
	return Result{Line: line, Measurement: m}
}

func skip(line string, err error) Result {
	return Result{Line: line, Skip: err}
}

func malformed(line, format string, args ...any) Result {
	return skip(line, fmt.Errorf("%w: %s", model.ErrMalformedLine, fmt.Sprintf(format, args...)))
}

// ParseRound parses every line of one closed round. A bad line never stops the
// remaining lines from being parsed.
func ParseRound(lines []string) []Result {
	results := make([]Result, 0, len(lines))
	for _, line := range lines {
		results = append(results, ParseLine(line))
	}
	return results
}

// ParseLine dispatches on the line prefix and converts the line into a measurement.
func ParseLine(line string) Result {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Result{Line: line}
	}
	if strings.Contains(line, ErrorToken) {
		return ok(line, model.ErrorEvent{Text: line})
	}
	if IsRoundMarker(line) {
		return Result{Line: line}
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "percentile":
		return parsePercentile(line)
	case "node":
		return parseNode(line, fields)
	case "deployment":
		return parseDeployment(line, fields)
	}
	return skip(line, model.ErrUnrecognizedLine)
}

// parsePercentile handles "percentile <label>=<seconds><unit>".
func parsePercentile(line string) Result {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "percentile"))
	label, raw, found := strings.Cut(rest, "=")
	if !found {
		return malformed(line, "percentile without '='")
	}
	label = strings.TrimSpace(label)
	raw = strings.TrimSpace(raw)
	if label == "" {
		return malformed(line, "percentile without label")
	}
	if len(raw) < 2 {
		return malformed(line, "percentile %s has no value", label)
	}
	seconds, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil {
		return malformed(line, "percentile %s value %q", label, raw)
	}
	return ok(line, model.PercentileLatency{Label: label, Millis: seconds * 1000})
}

// parseNode handles "node <id> capacity <int> allocation <int> usage <int>".
func parseNode(line string, fields []string) Result {
	vals, err := keyedInts(fields, "capacity", "allocation", "usage")
	if err != nil {
		return malformed(line, "node: %v", err)
	}
	return ok(line, model.NodeStat{
		NodeID:     fields[1],
		Capacity:   vals[0],
		Allocation: vals[1],
		Usage:      vals[2],
	})
}

// parseDeployment handles "deployment <id> allocation <int> usage <int> pods <int>".
func parseDeployment(line string, fields []string) Result {
	vals, err := keyedInts(fields, "allocation", "usage", "pods")
	if err != nil {
		return malformed(line, "deployment: %v", err)
	}
	return ok(line, model.DeploymentStat{
		DeploymentID: fields[1],
		Allocation:   vals[0],
		Usage:        vals[1],
		Pods:         vals[2],
	})
}

// keyedInts reads "<kind> <id> k1 v1 k2 v2 k3 v3" and returns v1..v3.
func keyedInts(fields []string, keys ...string) ([]int64, error) {
	want := 2 + 2*len(keys)
	if len(fields) < want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}
	vals := make([]int64, len(keys))
	for i, key := range keys {
		pos := 2 + 2*i
		if fields[pos] != key {
			return nil, fmt.Errorf("field %d is %q, want %q", pos, fields[pos], key)
		}
		v, err := strconv.ParseInt(fields[pos+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s value %q", key, fields[pos+1])
		}
		vals[i] = v
	}
	return vals, nil
}
