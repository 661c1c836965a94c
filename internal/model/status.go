package model

import "time"

// WatcherStatus is a point-in-time snapshot of the stream watcher.
type WatcherStatus struct {
	State          string    `json:"state"`
	Source         string    `json:"source"`
	Output         string    `json:"output"`
	Sessions       int64     `json:"sessions"`
	Lines          int64     `json:"lines"`
	RoundsFlushed  int64     `json:"rounds_flushed"`
	RoundsDropped  int64     `json:"rounds_discarded"`
	FlushErrors    int64     `json:"flush_errors"`
	LastFlush      time.Time `json:"last_flush,omitempty"`
	LastStreamErr  string    `json:"last_stream_error,omitempty"`
	CoolingDownTil time.Time `json:"cooling_down_until,omitempty"`
}
