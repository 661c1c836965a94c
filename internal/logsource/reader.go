package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// ReaderSource reads lines from an io.Reader in a background goroutine.
type ReaderSource struct {
	name   string
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// NewStdinSource creates a ReaderSource over stdin.
func NewStdinSource(ctx context.Context, conf ...Config) *ReaderSource {
	return NewReaderSource(ctx, "stdin", os.Stdin, conf...)
}

// NewReaderSource creates a ReaderSource named name that reads r until EOF,
// an error, or Stop.
func NewReaderSource(ctx context.Context, name string, r io.Reader, conf ...Config) *ReaderSource {
	var c Config
	if len(conf) > 0 {
		c = conf[0]
	}
	c = c.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	s := &ReaderSource{
		name:   name,
		ch:     make(chan model.IngestEnvelope, c.BufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.ch)
		err := pump(ctx, r, s.name, c.MaxLineSize, s.ch)
		if ctx.Err() != nil {
			err = nil
		}
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return s
}

// pump scans r line by line into ch. Blank lines are forwarded verbatim.
// It returns when r is exhausted, the scanner fails, or ctx is cancelled.
func pump(ctx context.Context, r io.Reader, source string, maxLineSize int, ch chan<- model.IngestEnvelope) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Use a single goroutine for the blocking scan so cancellation is
	// noticed without waiting for the next line.
	results := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(results)
		for scanner.Scan() {
			select {
			case results <- scanner.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-results:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("logsource: %s: scan: %w", source, err)
				}
				return nil
			}
			select {
			case ch <- model.IngestEnvelope{Source: source, Line: line}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *ReaderSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *ReaderSource) Name() string                       { return s.name }

func (s *ReaderSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop cancels the reader goroutine and waits for Lines to close.
func (s *ReaderSource) Stop() {
	s.cancel()
	<-s.done
}
