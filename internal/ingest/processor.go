package ingest

import (
	"errors"
	"fmt"
	"log"

	"github.com/tinytelemetry/roundwatch/internal/logparse"
	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/roundfile"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

// Options configures how run files are turned into series.
type Options struct {
	Policy ErrorPolicy
}

// Report summarizes what happened while ingesting one run.
type Report struct {
	Label string
	Path  string

	Rounds           int
	Lines            int
	Measurements     int
	Skipped          int
	ErrorMarkers     int
	Misaligned       int
	ZeroDenominators int
	Stray            int

	Diagnostics []model.Diagnostic
}

// Processor feeds parsed rounds of one run into a time-series store.
// Rounds are indexed by the order they are passed in.
type Processor struct {
	label  string
	opts   Options
	store  *timeseries.Store
	report Report
	next   int
}

// NewProcessor creates a Processor for the run named label.
func NewProcessor(label string, opts Options) *Processor {
	return &Processor{
		label:  label,
		opts:   opts,
		store:  timeseries.NewStore(),
		report: Report{Label: label},
	}
}

// ProcessRound parses one round and records its measurements. Parse and
// series problems become diagnostics; only an error marker under
// PolicyAbort is returned.
func (p *Processor) ProcessRound(lines []string) error {
	round := p.next
	p.next++
	p.store.BeginRound(round)
	p.report.Rounds++
	p.report.Lines += len(lines)

	for _, res := range logparse.ParseRound(lines) {
		switch {
		case res.Skipped():
			p.report.Skipped++
			p.diag(round, res.Line, res.Skip)

		case res.IsErrorEvent():
			p.report.ErrorMarkers++
			if p.opts.Policy == PolicyAbort {
				return fmt.Errorf("ingest: %s: round %d: %w: %s", p.label, round, model.ErrErrorMarker, res.Line)
			}
			p.diag(round, res.Line, model.ErrErrorMarker)

		case res.Ok():
			p.report.Measurements++
			if err := p.store.Observe(round, res.Measurement); err != nil {
				if errors.Is(err, model.ErrRoundAlignment) {
					p.report.Misaligned++
				}
				if errors.Is(err, model.ErrZeroDenominator) {
					p.report.ZeroDenominators++
				}
				p.diag(round, res.Line, err)
			}
		}
	}
	return nil
}

func (p *Processor) diag(round int, line string, err error) {
	p.report.Diagnostics = append(p.report.Diagnostics, model.Diagnostic{
		Label: p.label,
		Round: round,
		Line:  line,
		Err:   err,
	})
}

// Finish returns the run and its report. The processor must not be used
// afterwards.
func (p *Processor) Finish() (*timeseries.RunResult, Report) {
	return p.store.Finalize(p.label), p.report
}

// Result is one ingested run.
type Result struct {
	Run    *timeseries.RunResult
	Report Report
}

// ProcessFile reads the round file at path and builds the run named label.
// A missing file yields an error wrapping model.ErrMissingInput.
func ProcessFile(path, label string, opts Options) (*Result, error) {
	rounds, stray, err := roundfile.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := NewProcessor(label, opts)
	for _, r := range rounds {
		if err := p.ProcessRound(r.Lines); err != nil {
			return nil, err
		}
	}
	run, report := p.Finish()
	report.Path = path
	report.Stray = stray
	if stray > 0 {
		report.Diagnostics = append(report.Diagnostics, model.Diagnostic{
			Label: label,
			Round: -1,
			Err:   fmt.Errorf("%d lines outside any round: %w", stray, model.ErrUnrecognizedLine),
		})
	}
	if n := len(report.Diagnostics); n > 0 {
		log.Printf("ingest: %s: %d rounds, %d diagnostics (%d skipped, %d misaligned, %d zero denominators, %d error markers)",
			label, report.Rounds, n, report.Skipped, report.Misaligned, report.ZeroDenominators, report.ErrorMarkers)
	}
	return &Result{Run: run, Report: report}, nil
}
