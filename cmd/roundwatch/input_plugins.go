package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/tinytelemetry/roundwatch/internal/logsource"
	"github.com/tinytelemetry/roundwatch/internal/watcher"
)

const (
	sourceProcess = "process"
	sourceStdin   = "stdin"
)

// InputSourcePlugin is a small plugin primitive for wiring the monitored stream.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	// Restartable reports whether a fresh stream can be built after one ends.
	Restartable() bool
	Build(ctx context.Context) (logsource.LogSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	Source      string
	Command     []string
	MaxLineSize int
}

func newInputPluginConfig(cfg appConfig) InputPluginConfig {
	command := strings.Fields(cfg.Command)
	if len(command) == 0 {
		command = logsource.KubectlLogsCommand(cfg.Deployment, cfg.Namespace)
	}
	return InputPluginConfig{
		Source:      cfg.Source,
		Command:     command,
		MaxLineSize: cfg.MaxLineSize,
	}
}

func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	return []InputSourcePlugin{
		processInputPlugin{
			command:     cfg.Command,
			maxLineSize: cfg.MaxLineSize,
			enabled:     cfg.Source == sourceProcess,
		},
		stdinInputPlugin{
			maxLineSize: cfg.MaxLineSize,
			enabled:     cfg.Source == sourceStdin,
		},
	}
}

// selectInput returns the first enabled plugin.
func selectInput(plugins []InputSourcePlugin) (InputSourcePlugin, error) {
	for _, p := range plugins {
		if p.Enabled() {
			return p, nil
		}
	}
	return nil, errors.New("no input source enabled")
}

// sourceFactory adapts a plugin to the watcher's per-session factory.
func sourceFactory(p InputSourcePlugin) watcher.SourceFactory {
	return p.Build
}

type processInputPlugin struct {
	command     []string
	maxLineSize int
	enabled     bool
}

func (p processInputPlugin) Name() string      { return sourceProcess }
func (p processInputPlugin) Enabled() bool     { return p.enabled }
func (p processInputPlugin) Restartable() bool { return true }

func (p processInputPlugin) Build(ctx context.Context) (logsource.LogSource, error) {
	log.Printf("roundwatch: launching %s", strings.Join(p.command, " "))
	src, err := logsource.NewProcessSource(ctx, logsource.ProcessConfig{
		Config:  logsource.Config{MaxLineSize: p.maxLineSize},
		Command: p.command,
		Stderr:  log.Writer(),
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

type stdinInputPlugin struct {
	maxLineSize int
	enabled     bool
}

func (p stdinInputPlugin) Name() string      { return sourceStdin }
func (p stdinInputPlugin) Restartable() bool { return false }

func (p stdinInputPlugin) Enabled() bool {
	if !p.enabled {
		return false
	}
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p stdinInputPlugin) Build(ctx context.Context) (logsource.LogSource, error) {
	return logsource.NewStdinSource(ctx, logsource.Config{MaxLineSize: p.maxLineSize}), nil
}
