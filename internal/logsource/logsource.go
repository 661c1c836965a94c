package logsource

import "github.com/tinytelemetry/roundwatch/internal/model"

// LogSource is a line stream from the monitored process (or any reader).
// Lines is closed when the stream ends; Err is valid after that.
type LogSource interface {
	Lines() <-chan model.IngestEnvelope // read-only channel of raw lines
	Err() error                         // nil on clean end or cancellation
	Stop()                              // release the underlying handle; idempotent
	Name() string                       // "process", "stdin", ...
}

const (
	// DefaultBuffer is the default channel buffer size for lines.
	DefaultBuffer = 4096

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single line.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
)

// Config holds tunable parameters shared by every source.
type Config struct {
	BufferSize  int
	MaxLineSize int
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBuffer
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = DefaultMaxLineSize
	}
	return c
}
