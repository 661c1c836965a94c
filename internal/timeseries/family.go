package timeseries

import (
	"fmt"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// ZeroSentinel is the value padded into a series for rounds in which the
// entity was not observed.
const ZeroSentinel = 0.0

// AlignmentError reports that a series length disagreed with the round index
// it was appended at. The series has already been healed when it is returned.
type AlignmentError struct {
	Family string
	Entity string
	Round  int
	Length int // length before the append
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s %q: series length %d at round %d", e.Family, e.Entity, e.Length, e.Round)
}

func (e *AlignmentError) Unwrap() error { return model.ErrRoundAlignment }

// Family maps entity ids to round-indexed series, keeping first-seen order.
type Family struct {
	name   string
	keys   []string
	series map[string][]float64
}

// NewFamily creates an empty family. The name is used in alignment errors.
func NewFamily(name string) *Family {
	return &Family{
		name:   name,
		series: make(map[string][]float64),
	}
}

// Name returns the metric family name.
func (f *Family) Name() string { return f.name }

// Append records v for entity at round. A series shorter than round is padded
// with ZeroSentinel first; a series already holding a value for round has it
// replaced. Both cases return an *AlignmentError after the series is healed,
// so len(series) == round+1 always holds afterwards.
func (f *Family) Append(entity string, round int, v float64) error {
	if round < 0 {
		return fmt.Errorf("%s %q: negative round %d", f.name, entity, round)
	}
	s, seen := f.series[entity]
	if !seen {
		f.keys = append(f.keys, entity)
	}

	n := len(s)
	var err error
	switch {
	case n == round:
		s = append(s, v)
	case n < round:
		for len(s) < round {
			s = append(s, ZeroSentinel)
		}
		s = append(s, v)
		err = &AlignmentError{Family: f.name, Entity: entity, Round: round, Length: n}
	default:
		s = s[:round+1]
		s[round] = v
		err = &AlignmentError{Family: f.name, Entity: entity, Round: round, Length: n}
	}
	f.series[entity] = s
	return err
}

// Keys returns entity ids in first-seen order.
func (f *Family) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns a copy of the series for entity.
func (f *Family) Get(entity string) ([]float64, bool) {
	s, ok := f.series[entity]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out, true
}

// At returns the value for entity at round, and false when the series has no
// value at that index.
func (f *Family) At(entity string, round int) (float64, bool) {
	s, ok := f.series[entity]
	if !ok || round < 0 || round >= len(s) {
		return 0, false
	}
	return s[round], true
}

// Len returns the number of entities.
func (f *Family) Len() int { return len(f.keys) }

// Each calls fn for every entity in first-seen order. fn must not retain s.
func (f *Family) Each(fn func(entity string, s []float64)) {
	for _, k := range f.keys {
		fn(k, f.series[k])
	}
}
