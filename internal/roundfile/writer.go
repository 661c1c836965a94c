package roundfile

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Delimiter is the line written before every flushed round.
const Delimiter = "---"

// Writer appends complete rounds to a flat text file.
// Each round is written with a single open/write/fsync/close cycle, and the
// byte offset after the last synced round is kept in a sidecar commit file.
// A torn trailing write is cut off the next time the file is opened.
type Writer struct {
	mu         sync.Mutex
	path       string
	commitPath string
	committed  int64
	appended   int
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	truncate bool
}

// WithTruncate clears any existing content when the file is opened.
func WithTruncate() Option {
	return func(o *openOptions) { o.truncate = true }
}

// Open creates or opens the round file at path.
func Open(path string, opts ...Option) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("roundfile: path is empty")
	}
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("roundfile: mkdir: %w", err)
	}

	w := &Writer{
		path:       path,
		commitPath: CommitPath(path),
	}

	if o.truncate {
		if err := os.WriteFile(path, nil, defaultFileMode); err != nil {
			return nil, fmt.Errorf("roundfile: truncate: %w", err)
		}
		if err := writeCommitted(w.commitPath, 0); err != nil {
			return nil, err
		}
		return w, nil
	}

	committed, err := recoverTail(path, w.commitPath)
	if err != nil {
		return nil, err
	}
	w.committed = committed
	return w, nil
}

// AppendRound durably appends one complete round, preceded by the delimiter.
func (w *Writer) AppendRound(lines []string) error {
	if len(lines) == 0 {
		return errors.New("roundfile: empty round")
	}
	payload := encodeRound(lines)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.appendAndSync(payload); err != nil {
		w.rollback()
		return err
	}

	next := w.committed + int64(len(payload))
	if err := writeCommitted(w.commitPath, next); err != nil {
		// The round is on disk but not committed; drop it so the next
		// round starts at the committed offset.
		w.rollback()
		return err
	}
	w.committed = next
	w.appended++
	return nil
}

// rollback cuts the file back to the committed offset. Callers hold w.mu.
func (w *Writer) rollback() {
	if err := os.Truncate(w.path, w.committed); err != nil {
		log.Printf("roundfile: rollback to offset %d failed: %v", w.committed, err)
	}
}

func (w *Writer) appendAndSync(payload []byte) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("roundfile: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("roundfile: write round: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("roundfile: sync round: %w", err)
	}
	return f.Close()
}

// Path returns the round file path.
func (w *Writer) Path() string { return w.path }

// Appended returns the number of rounds appended through this writer.
func (w *Writer) Appended() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appended
}

// Committed returns the byte offset of the end of the last synced round.
func (w *Writer) Committed() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.committed
}

// CommitPath returns the sidecar path used for a round file.
func CommitPath(path string) string { return path + ".commit" }

func encodeRound(lines []string) []byte {
	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(strings.TrimRight(line, "\r\n"))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// recoverTail reconciles the file with its commit offset and returns the
// offset new rounds are appended after.
func recoverTail(path, commitPath string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := writeCommitted(commitPath, 0); err != nil {
				return 0, err
			}
			return 0, nil
		}
		return 0, fmt.Errorf("roundfile: stat: %w", err)
	}
	size := info.Size()

	committed, ok, err := readCommitted(commitPath)
	if err != nil {
		return 0, err
	}
	switch {
	case !ok || committed > size:
		// No sidecar, or the file was cut externally: trust the file.
		committed = size
		if err := writeCommitted(commitPath, committed); err != nil {
			return 0, err
		}
	case committed < size:
		log.Printf("roundfile: discarding %d bytes of torn trailing round in %s", size-committed, path)
		if err := os.Truncate(path, committed); err != nil {
			return 0, fmt.Errorf("roundfile: truncate torn tail: %w", err)
		}
	}
	return committed, nil
}

func readCommitted(path string) (int64, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("roundfile: read commit file: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, false, nil
	}
	off, err := strconv.ParseInt(s, 10, 64)
	if err != nil || off < 0 {
		return 0, false, fmt.Errorf("roundfile: parse commit offset %q", s)
	}
	return off, true, nil
}

func writeCommitted(path string, off int64) error {
	tmp := path + ".tmp"
	payload := []byte(strconv.FormatInt(off, 10) + "\n")
	if err := os.WriteFile(tmp, payload, defaultFileMode); err != nil {
		return fmt.Errorf("roundfile: write commit tmp: %w", err)
	}

	f, err := os.OpenFile(tmp, os.O_RDWR, defaultFileMode)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("roundfile: open commit tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("roundfile: sync commit tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("roundfile: close commit tmp: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("roundfile: rename commit file: %w", err)
	}
	return nil
}
