package model

import "errors"

// Error taxonomy shared across parsing, series building and the CLIs.
var (
	// ErrMalformedLine marks a recognized line with wrong arity or unconvertible values.
	ErrMalformedLine = errors.New("malformed line")
	// ErrUnrecognizedLine marks a line that matches no grammar.
	ErrUnrecognizedLine = errors.New("unrecognized line")
	// ErrRoundAlignment marks a series whose length disagreed with the round index.
	ErrRoundAlignment = errors.New("round alignment mismatch")
	// ErrErrorMarker marks a stream-reported error line.
	ErrErrorMarker = errors.New("error marker observed")
	// ErrMissingInput marks an input file that does not exist or cannot be opened.
	ErrMissingInput = errors.New("missing input file")
	// ErrZeroDenominator marks a ratio whose capacity or allocation is zero.
	ErrZeroDenominator = errors.New("zero denominator")
	// ErrUsage marks a bad command line invocation.
	ErrUsage = errors.New("usage error")
)

// Diagnostic is one non-fatal problem found while turning a run file into series.
type Diagnostic struct {
	Label string
	Round int // -1 when not tied to a round
	Line  string
	Err   error
}
