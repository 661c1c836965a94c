package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/analysis"
	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
	"github.com/tinytelemetry/roundwatch/internal/tui"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, startProgram))
}

// startProgram runs the viewer full screen until the user quits.
func startProgram(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, start func(tea.Model) error) int {
	fs := flag.NewFlagSet("roundview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: roundview [flags] <file> <label> [<file> <label> ...]\n")
		fmt.Fprintf(stderr, "       roundview -from-db [-labels a,b] -db-path runs.duckdb\n\n")
		fs.PrintDefaults()
	}

	var configPath, dbPath, manifest, onErrorMarker, labels string
	var fromDB, showVersion bool
	fs.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/roundwatch/roundview.yml)")
	fs.BoolVar(&showVersion, "version", false, "print version information")
	fs.StringVar(&dbPath, "db-path", "", "DuckDB database runs are exported to or read from")
	fs.StringVar(&manifest, "manifest", "", "YAML file listing runs")
	fs.StringVar(&onErrorMarker, "on-error-marker", "", "continue or abort when a round reports an error")
	fs.BoolVar(&fromDB, "from-db", false, "view runs stored in the database instead of run files")
	fs.StringVar(&labels, "labels", "", "comma-separated stored run labels (default all)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if showVersion {
		fmt.Fprintf(stdout, "roundview - round log viewer\n")
		fmt.Fprintf(stdout, "  Version:    %s\n", version)
		fmt.Fprintf(stdout, "  Commit:     %s\n", commit)
		fmt.Fprintf(stdout, "  Built:      %s\n", buildTime)
		fmt.Fprintf(stdout, "  Go version: %s\n", goVersion)
		return exitOK
	}

	overrides := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-path", "manifest", "on-error-marker":
			overrides[f.Name] = f.Value.String()
		}
	})
	cfg, err := analysis.LoadConfig("roundview", "ROUNDSTAT", configPath, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitError
	}

	runs, err := loadRuns(ctx, cfg, fromDB, labels, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, model.ErrUsage) {
			fs.Usage()
			return exitUsage
		}
		return exitError
	}

	cmp, err := aggregate.Compare(runs, cfg.Aggregate())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if err := start(tui.NewViewer(runs, cmp)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func loadRuns(ctx context.Context, cfg analysis.Config, fromDB bool, labels string, args []string) ([]*timeseries.RunResult, error) {
	if fromDB {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("%w: -from-db needs -db-path", model.ErrUsage)
		}
		var want []string
		for _, l := range strings.Split(labels, ",") {
			if l = strings.TrimSpace(l); l != "" {
				want = append(want, l)
			}
		}
		runs, err := analysis.LoadStored(ctx, cfg.DBPath, want)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("no runs stored in %s", cfg.DBPath)
		}
		return runs, nil
	}

	inputs, err := analysis.Inputs(cfg, args)
	if err != nil {
		return nil, err
	}
	a, err := analysis.Analyze(ctx, cfg, inputs)
	if err != nil {
		return nil, err
	}
	for _, in := range a.Skipped {
		log.Printf("roundview: %s (%s): %v", in.Path, in.Label, model.ErrMissingInput)
	}
	return a.Runs(), nil
}
