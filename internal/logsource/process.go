package logsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// DefaultWaitDelay bounds how long Stop waits for the process's pipes after
// it has been killed.
const DefaultWaitDelay = 5 * time.Second

// ProcessConfig configures a ProcessSource.
type ProcessConfig struct {
	Config
	// Command is the argv of the monitored process.
	Command []string
	// Stderr receives the process's stderr. Defaults to the standard logger.
	Stderr    io.Writer
	WaitDelay time.Duration
}

// ProcessSource launches one monitored process and streams its stdout.
// The process is killed when the parent context is cancelled or Stop is called.
type ProcessSource struct {
	argv   []string
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// KubectlLogsCommand returns the argv that follows a deployment's logs.
func KubectlLogsCommand(deployment, namespace string) []string {
	return []string{
		"kubectl", "logs", "-f", "deployment/" + deployment,
		"-n", namespace,
		"--all-containers=false",
		"--prefix=false",
		"--max-log-requests=20",
	}
}

// NewProcessSource starts the process described by conf.
func NewProcessSource(ctx context.Context, conf ProcessConfig) (*ProcessSource, error) {
	if len(conf.Command) == 0 || strings.TrimSpace(conf.Command[0]) == "" {
		return nil, errors.New("logsource: process: empty command")
	}
	c := conf.Config.withDefaults()
	waitDelay := conf.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	stderr := conf.Stderr
	if stderr == nil {
		stderr = log.Writer()
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, conf.Command[0], conf.Command[1:]...)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("logsource: process: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("logsource: process: start %s: %w", conf.Command[0], err)
	}

	s := &ProcessSource{
		argv:   append([]string(nil), conf.Command...),
		ch:     make(chan model.IngestEnvelope, c.BufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.ch)
		scanErr := pump(ctx, stdout, s.Name(), c.MaxLineSize, s.ch)
		cancelled := ctx.Err() != nil
		if scanErr != nil && !cancelled {
			// stdout is no longer drained; a process that keeps running
			// would never exit on its own.
			cancel()
		}
		waitErr := cmd.Wait()
		var err error
		switch {
		case cancelled:
			// Cancelled: the kill is expected.
		case scanErr != nil:
			err = scanErr
		case waitErr != nil:
			err = fmt.Errorf("logsource: process %s: %w", s.argv[0], waitErr)
		}
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return s, nil
}

func (s *ProcessSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *ProcessSource) Name() string                       { return "process" }

// Command returns the argv of the process.
func (s *ProcessSource) Command() []string { return append([]string(nil), s.argv...) }

func (s *ProcessSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop kills the process if it is still running and waits until it has
// been reaped.
func (s *ProcessSource) Stop() {
	s.cancel()
	<-s.done
}
