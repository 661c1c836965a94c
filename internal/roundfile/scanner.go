package roundfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tinytelemetry/roundwatch/internal/logparse"
	"github.com/tinytelemetry/roundwatch/internal/model"
)

// DefaultMaxLineSize is the largest line the scanner accepts.
const DefaultMaxLineSize = 1024 * 1024 // 1MB

// Round is one closed round read back from a round file.
// Index counts rounds in file order; the integer in the marker line is ignored.
type Round struct {
	Index int
	Lines []string
}

// Scanner splits a round file (or a raw, undelimited stream) into rounds.
// A delimiter line closes the open round, and so does a marker line arriving
// while a round is already open.
type Scanner struct {
	sc      *bufio.Scanner
	cur     []string
	next    int
	round   Round
	stray   int
	err     error
	done    bool
	pending *string
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineSize)
	return &Scanner{sc: sc}
}

// Scan advances to the next round. It returns false at end of input or on error.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	for {
		var line string
		if s.pending != nil {
			line, s.pending = *s.pending, nil
		} else if s.sc.Scan() {
			line = s.sc.Text()
		} else {
			s.done = true
			if err := s.sc.Err(); err != nil {
				s.err = fmt.Errorf("roundfile: scan: %w", err)
				return false
			}
			return s.emit()
		}

		switch {
		case strings.TrimSpace(line) == Delimiter:
			if s.emit() {
				return true
			}
		case logparse.IsRoundMarker(line):
			if len(s.cur) > 0 {
				// Re-read the marker as the first line of the next round.
				s.pending = &line
				s.emit()
				return true
			}
			s.cur = append(s.cur, line)
		case len(s.cur) == 0:
			if strings.TrimSpace(line) != "" {
				s.stray++
			}
		default:
			s.cur = append(s.cur, line)
		}
	}
}

// emit closes the open round, if any, and reports whether one was produced.
func (s *Scanner) emit() bool {
	if len(s.cur) == 0 {
		return false
	}
	s.round = Round{Index: s.next, Lines: s.cur}
	s.next++
	s.cur = nil
	return true
}

// Round returns the round produced by the last successful Scan.
func (s *Scanner) Round() Round { return s.round }

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error { return s.err }

// Stray returns the number of non-blank lines seen outside any round.
func (s *Scanner) Stray() int { return s.stray }

// ReadFile reads every round of the file at path. When a commit sidecar is
// present, bytes past the committed offset are ignored.
func ReadFile(path string) ([]Round, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", path, model.ErrMissingInput)
		}
		return nil, 0, fmt.Errorf("roundfile: read %s: %w", path, err)
	}
	if off, ok, cerr := readCommitted(CommitPath(path)); cerr == nil && ok && off < int64(len(data)) {
		data = data[:off]
	}

	sc := NewScanner(bytes.NewReader(data))
	var rounds []Round
	for sc.Scan() {
		rounds = append(rounds, sc.Round())
	}
	if err := sc.Err(); err != nil {
		return rounds, sc.Stray(), err
	}
	return rounds, sc.Stray(), nil
}
