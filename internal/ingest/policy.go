package ingest

import (
	"fmt"
	"strings"
)

// ErrorPolicy decides what an error marker in a run file does.
type ErrorPolicy int

const (
	// PolicyContinue counts error markers as diagnostics and keeps parsing.
	PolicyContinue ErrorPolicy = iota
	// PolicyAbort fails the whole run file at the first error marker.
	PolicyAbort
)

// ParsePolicy parses "continue" or "abort". The empty string means continue.
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return PolicyContinue, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicyContinue, fmt.Errorf("ingest: unknown error-marker policy %q (want continue or abort)", s)
	}
}

func (p ErrorPolicy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "continue"
}
