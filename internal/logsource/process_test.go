package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestProcessSourceStreamsStdout(t *testing.T) {
	requireShell(t)

	src, err := NewProcessSource(context.Background(), ProcessConfig{
		Command: []string{"sh", "-c", "printf 'Round 0\\nnode a capacity 4 allocation 2 usage 1\\n'"},
		Stderr:  io.Discard,
	})
	if err != nil {
		t.Fatalf("NewProcessSource: %v", err)
	}
	defer src.Stop()

	got := collect(t, src)
	if len(got) != 2 || got[0] != "Round 0" {
		t.Fatalf("lines = %q", got)
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestProcessSourceReportsExitFailure(t *testing.T) {
	requireShell(t)

	src, err := NewProcessSource(context.Background(), ProcessConfig{
		Command: []string{"sh", "-c", "echo partial; exit 3"},
		Stderr:  io.Discard,
	})
	if err != nil {
		t.Fatalf("NewProcessSource: %v", err)
	}
	defer src.Stop()

	_ = collect(t, src)
	if src.Err() == nil {
		t.Fatal("expected error for non-zero exit")
	}
}

func TestProcessSourceStopKillsProcess(t *testing.T) {
	requireShell(t)

	src, err := NewProcessSource(context.Background(), ProcessConfig{
		Command:   []string{"sh", "-c", "echo Round 0; exec sleep 30"},
		Stderr:    io.Discard,
		WaitDelay: time.Second,
	})
	if err != nil {
		t.Fatalf("NewProcessSource: %v", err)
	}

	select {
	case env := <-src.Lines():
		if env.Line != "Round 0" {
			t.Fatalf("first line = %q", env.Line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first line")
	}

	stopped := make(chan struct{})
	go func() {
		src.Stop()
		src.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err after Stop = %v, want nil", err)
	}
}

func TestProcessSourceScanErrorReleasesProcess(t *testing.T) {
	requireShell(t)
	for _, tool := range []string{"head", "tr"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}

	src, err := NewProcessSource(context.Background(), ProcessConfig{
		Config: Config{MaxLineSize: 64 * 1024},
		Command: []string{"sh", "-c",
			"echo first; head -c 200000 /dev/zero | tr '\\0' x; echo; exec sleep 20"},
		Stderr:    io.Discard,
		WaitDelay: time.Second,
	})
	if err != nil {
		t.Fatalf("NewProcessSource: %v", err)
	}
	defer src.Stop()

	deadline := time.After(5 * time.Second)
	var got []string
	for open := true; open; {
		select {
		case env, ok := <-src.Lines():
			if !ok {
				open = false
				break
			}
			got = append(got, env.Line)
		case <-deadline:
			t.Fatalf("Lines still open after over-long line; got %q, Err = %v", got, src.Err())
		}
	}
	if len(got) != 1 || got[0] != "first" {
		t.Errorf("lines = %q, want [first]", got)
	}
	if err := src.Err(); !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("Err = %v, want bufio.ErrTooLong", err)
	}
}

func TestProcessSourceEmptyCommand(t *testing.T) {
	t.Parallel()

	if _, err := NewProcessSource(context.Background(), ProcessConfig{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestKubectlLogsCommand(t *testing.T) {
	t.Parallel()

	got := strings.Join(KubectlLogsCommand("watcher", "default"), " ")
	want := "kubectl logs -f deployment/watcher -n default --all-containers=false --prefix=false --max-log-requests=20"
	if got != want {
		t.Fatalf("command = %q, want %q", got, want)
	}
}
