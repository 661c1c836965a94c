package watcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/roundwatch/internal/logsource"
)

type memorySink struct {
	mu     sync.Mutex
	rounds [][]string
	fail   int // number of leading appends that fail
}

func (s *memorySink) AppendRound(lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("append failed")
	}
	s.rounds = append(s.rounds, append([]string(nil), lines...))
	return nil
}

func (s *memorySink) Rounds() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.rounds...)
}

func readerFactory(text string) SourceFactory {
	return func(ctx context.Context) (logsource.LogSource, error) {
		return logsource.NewReaderSource(ctx, "test", strings.NewReader(text)), nil
	}
}

func TestRunFlushesCompleteRoundsOnly(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	var echo bytes.Buffer
	w := New(readerFactory("preamble\nRound 0\na\nRound 1\nb\nRound 2\nc\n"), sink, Config{Echo: &echo})

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rounds := sink.Rounds()
	if len(rounds) != 2 {
		t.Fatalf("flushed %d rounds, want 2 (markers - 1)", len(rounds))
	}
	if strings.Join(rounds[1], "|") != "Round 1|b" {
		t.Errorf("second round = %q", rounds[1])
	}

	st := w.Status()
	if st.RoundsFlushed != 2 || st.RoundsDropped != 1 {
		t.Errorf("status flushed=%d dropped=%d, want 2 and 1", st.RoundsFlushed, st.RoundsDropped)
	}
	if st.Lines != 7 {
		t.Errorf("Lines = %d, want 7", st.Lines)
	}
	if st.State != stateStopped {
		t.Errorf("State = %q, want %q", st.State, stateStopped)
	}
	if !strings.Contains(echo.String(), "preamble\n") {
		t.Errorf("echo missing pre-marker line: %q", echo.String())
	}
}

func TestRunInterruptedStreamKeepsFirstRound(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	w := New(readerFactory("Round 0\nx\nRound 1\ny\n"), sink, Config{})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rounds := sink.Rounds()
	if len(rounds) != 1 || strings.Join(rounds[0], "|") != "Round 0|x" {
		t.Fatalf("rounds = %q, want only Round 0", rounds)
	}
}

func TestRunFlushFailureDropsRound(t *testing.T) {
	t.Parallel()

	sink := &memorySink{fail: 1}
	w := New(readerFactory("Round 0\na\nRound 1\nb\nRound 2\n"), sink, Config{})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rounds := sink.Rounds()
	if len(rounds) != 1 || rounds[0][0] != "Round 1" {
		t.Fatalf("rounds = %q, want only Round 1", rounds)
	}
	if st := w.Status(); st.FlushErrors != 1 {
		t.Errorf("FlushErrors = %d, want 1", st.FlushErrors)
	}
}

func TestRunRestartsAfterCooldown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	launches := 0
	factory := func(ctx context.Context) (logsource.LogSource, error) {
		mu.Lock()
		launches++
		n := launches
		mu.Unlock()
		if n == 3 {
			cancel()
		}
		return logsource.NewReaderSource(ctx, "test", strings.NewReader("Round 0\na\nRound 1\nb\n")), nil
	}

	sink := &memorySink{}
	w := New(factory, sink, Config{Restart: true, Cooldown: 10 * time.Millisecond})
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if launches != 3 {
		t.Fatalf("launches = %d, want 3", launches)
	}
	if got := len(sink.Rounds()); got < 2 {
		t.Fatalf("flushed %d rounds across sessions, want at least 2", got)
	}
	for _, r := range sink.Rounds() {
		if r[0] != "Round 0" {
			t.Errorf("session flushed %q, want only its Round 0", r)
		}
	}
	if st := w.Status(); st.Sessions < 2 {
		t.Errorf("Sessions = %d, want at least 2", st.Sessions)
	}
}

func TestRunCancelDuringCooldownReturnsPromptly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launched := make(chan struct{}, 1)
	factory := func(ctx context.Context) (logsource.LogSource, error) {
		launched <- struct{}{}
		return logsource.NewReaderSource(ctx, "test", strings.NewReader("Round 0\n")), nil
	}
	w := New(factory, &memorySink{}, Config{Restart: true, Cooldown: time.Hour})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	<-launched
	deadline := time.Now().Add(5 * time.Second)
	for w.Status().State != stateCoolingDown {
		if time.Now().After(deadline) {
			t.Fatal("watcher never entered cooldown")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunCancelMidRoundDiscards(t *testing.T) {
	t.Parallel()

	r, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memorySink{}
	factory := func(ctx context.Context) (logsource.LogSource, error) {
		return logsource.NewReaderSource(ctx, "pipe", r), nil
	}
	w := New(factory, sink, Config{Restart: true, Cooldown: time.Hour})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if _, err := pw.WriteString("Round 0\na\nRound 1\nb\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for w.Status().Lines < 4 {
		if time.Now().After(deadline) {
			t.Fatal("lines never consumed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if got := len(sink.Rounds()); got != 1 {
		t.Fatalf("flushed %d rounds, want 1", got)
	}
	if st := w.Status(); st.RoundsDropped != 1 {
		t.Errorf("RoundsDropped = %d, want 1", st.RoundsDropped)
	}
}

func TestRunLaunchFailureWithoutRestart(t *testing.T) {
	t.Parallel()

	factory := func(context.Context) (logsource.LogSource, error) {
		return nil, errors.New("kubectl not found")
	}
	w := New(factory, &memorySink{}, Config{})
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected launch error")
	}
	if st := w.Status(); !strings.Contains(st.LastStreamErr, "kubectl not found") {
		t.Errorf("LastStreamErr = %q", st.LastStreamErr)
	}
}
