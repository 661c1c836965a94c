package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the watcher's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	lines           prometheus.Counter
	roundsFlushed   prometheus.Counter
	roundsDiscarded prometheus.Counter
	flushErrors     prometheus.Counter
	restarts        prometheus.Counter
	state           prometheus.Gauge
}

// NewMetrics creates and registers the watcher collectors.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roundwatch",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		registry:        prometheus.NewRegistry(),
		lines:           counter("lines_total", "Lines read from the monitored stream"),
		roundsFlushed:   counter("rounds_flushed_total", "Complete rounds appended to the round file"),
		roundsDiscarded: counter("rounds_discarded_total", "Open rounds dropped on stream end or shutdown"),
		flushErrors:     counter("flush_errors_total", "Rounds dropped because the append failed"),
		restarts:        counter("restarts_total", "Tail sessions relaunched after the cooldown"),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roundwatch",
			Name:      "state",
			Help:      "Segmenter state: 0 idle, 1 in round, 2 flushing",
		}),
	}
	m.registry.MustRegister(
		m.lines,
		m.roundsFlushed,
		m.roundsDiscarded,
		m.flushErrors,
		m.restarts,
		m.state,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
