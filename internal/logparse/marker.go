package logparse

import "regexp"

// RoundMarkerRegex matches the line that opens a new round.
// The integer is informational; round indices are assigned by counting markers.
var RoundMarkerRegex = regexp.MustCompile(`^Round\s+\d+`)

// IsRoundMarker reports whether line starts a new round.
func IsRoundMarker(line string) bool {
	return RoundMarkerRegex.MatchString(line)
}

// ErrorToken is the substring that flags a stream-reported error line.
const ErrorToken = "ERROR"
