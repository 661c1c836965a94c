package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/roundwatch/internal/logsource"
	"github.com/tinytelemetry/roundwatch/internal/model"
)

// stateCoolingDown and stateStopped extend State for status reporting only.
const (
	stateCoolingDown = "cooling_down"
	stateStopped     = "stopped"
)

// RoundSink durably records complete rounds.
type RoundSink interface {
	AppendRound(lines []string) error
}

// SourceFactory launches a fresh stream for one tail session.
type SourceFactory func(ctx context.Context) (logsource.LogSource, error)

// Config configures a Watcher.
type Config struct {
	// Cooldown is the wait between a stream ending and the relaunch.
	Cooldown time.Duration
	// Restart relaunches the stream after Cooldown when it ends on its own.
	Restart bool
	// Echo receives every raw line as it arrives. Nil disables the echo.
	Echo io.Writer
	// SourceName and OutputPath are reported in the status snapshot.
	SourceName string
	OutputPath string
	Metrics    *Metrics
}

// Watcher tails the monitored stream and appends every complete round to a
// sink. The round open when the stream ends is never recorded.
type Watcher struct {
	newSource SourceFactory
	sink      RoundSink
	cfg       Config
	metrics   *Metrics

	mu     sync.Mutex
	status model.WatcherStatus
}

// New creates a Watcher.
func New(newSource SourceFactory, sink RoundSink, cfg Config) *Watcher {
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Watcher{
		newSource: newSource,
		sink:      sink,
		cfg:       cfg,
		metrics:   metrics,
		status: model.WatcherStatus{
			State:  StateIdle.String(),
			Source: cfg.SourceName,
			Output: cfg.OutputPath,
		},
	}
}

// Metrics returns the watcher's collectors.
func (w *Watcher) Metrics() *Metrics { return w.metrics }

// Run tails sessions until ctx is cancelled, or until the stream ends when
// restarts are disabled. Cancellation returns nil without waiting out the
// cooldown.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.setState(stateStopped)
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if !w.cfg.Restart {
			return err
		}

		until := time.Now().Add(w.cfg.Cooldown)
		w.mu.Lock()
		w.status.State = stateCoolingDown
		w.status.CoolingDownTil = until
		w.mu.Unlock()
		if err != nil {
			log.Printf("watcher: stream ended: %v; restarting in %s", err, w.cfg.Cooldown)
		} else {
			log.Printf("watcher: stream ended; restarting in %s", w.cfg.Cooldown)
		}

		timer := time.NewTimer(w.cfg.Cooldown)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		w.metrics.restarts.Inc()
	}
}

// session runs one tail session from Idle to the end of its stream.
func (w *Watcher) session(ctx context.Context) error {
	src, err := w.newSource(ctx)
	if err != nil {
		err = fmt.Errorf("watcher: launch source: %w", err)
		w.recordStreamErr(err)
		return err
	}
	defer src.Stop()

	w.mu.Lock()
	w.status.Sessions++
	w.status.State = StateIdle.String()
	w.status.CoolingDownTil = time.Time{}
	w.mu.Unlock()

	seg := NewSegmenter(w.flush)
	w.metrics.state.Set(float64(StateIdle))

	for {
		select {
		case <-ctx.Done():
			w.discard(seg, "shutdown")
			return ctx.Err()

		case env, ok := <-src.Lines():
			if !ok {
				w.discard(seg, "stream end")
				err := src.Err()
				w.recordStreamErr(err)
				return err
			}
			w.echo(env.Line)
			w.metrics.lines.Inc()

			if err := seg.Feed(env.Line); err != nil {
				log.Printf("watcher: dropping round: %v", err)
				w.metrics.flushErrors.Inc()
				w.mu.Lock()
				w.status.FlushErrors++
				w.mu.Unlock()
			}

			w.metrics.state.Set(float64(seg.State()))
			w.mu.Lock()
			w.status.Lines++
			w.status.State = seg.State().String()
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) flush(r Round) error {
	if err := w.sink.AppendRound(r.Lines); err != nil {
		return fmt.Errorf("round %d: %w", r.Seq, err)
	}
	log.Printf("watcher: flushed round %d (%d lines)", r.Seq, len(r.Lines))
	w.metrics.roundsFlushed.Inc()

	w.mu.Lock()
	w.status.RoundsFlushed++
	w.status.LastFlush = time.Now()
	w.mu.Unlock()
	return nil
}

func (w *Watcher) discard(seg *Segmenter, reason string) {
	wasOpen := seg.State() != StateIdle
	if n := seg.Discard(); wasOpen {
		log.Printf("watcher: %s: discarding incomplete round (%d lines)", reason, n)
		w.metrics.roundsDiscarded.Inc()
		w.mu.Lock()
		w.status.RoundsDropped++
		w.mu.Unlock()
	}
	w.metrics.state.Set(float64(StateIdle))
	w.setState(StateIdle.String())
}

func (w *Watcher) echo(line string) {
	if w.cfg.Echo == nil {
		return
	}
	if _, err := io.WriteString(w.cfg.Echo, line+"\n"); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Printf("watcher: echo: %v", err)
	}
}

func (w *Watcher) recordStreamErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	w.status.LastStreamErr = err.Error()
	w.mu.Unlock()
}

func (w *Watcher) setState(state string) {
	w.mu.Lock()
	w.status.State = state
	w.mu.Unlock()
}

// Status returns a snapshot of the watcher.
func (w *Watcher) Status() model.WatcherStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}
