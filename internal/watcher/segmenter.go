package watcher

import "github.com/tinytelemetry/roundwatch/internal/logparse"

// State is the segmenter's position in the round lifecycle.
type State int

const (
	StateIdle State = iota
	StateInRound
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInRound:
		return "in_round"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// Round is a complete round handed to the flush callback.
// Seq is the zero-based count of rounds opened in this session.
type Round struct {
	Seq   int
	Lines []string
}

// Segmenter splits a line stream into rounds. A round opens at a marker and
// is complete only when the next marker arrives; lines before the first
// marker are not buffered.
type Segmenter struct {
	flush  func(Round) error
	state  State
	buf    []string
	opened int
}

// NewSegmenter returns an idle segmenter that hands complete rounds to flush.
func NewSegmenter(flush func(Round) error) *Segmenter {
	return &Segmenter{flush: flush}
}

// Feed consumes one line. The returned error is the flush error, if any; the
// round is dropped in that case and segmentation continues.
func (s *Segmenter) Feed(line string) error {
	if !logparse.IsRoundMarker(line) {
		if s.state == StateInRound {
			s.buf = append(s.buf, line)
		}
		return nil
	}

	var err error
	if s.state == StateInRound {
		s.state = StateFlushing
		err = s.flush(Round{Seq: s.opened - 1, Lines: s.buf})
	}
	s.buf = []string{line}
	s.opened++
	s.state = StateInRound
	return err
}

// Discard drops the open round, if any, and returns the number of buffered
// lines that were dropped.
func (s *Segmenter) Discard() int {
	n := len(s.buf)
	s.buf = nil
	s.state = StateIdle
	return n
}

// State returns the current state.
func (s *Segmenter) State() State { return s.state }

// Opened returns the number of markers seen.
func (s *Segmenter) Opened() int { return s.opened }
