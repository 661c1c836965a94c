package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinytelemetry/roundwatch/internal/analysis"
	"github.com/tinytelemetry/roundwatch/internal/chart"
	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/report"
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

	barWidth  = 60
	barHeight = 12
)

// overridable lists the config keys that can also be given as flags.
var overridable = []struct{ key, usage string }{
	{"out-dir", "directory charts are written to"},
	{"on-error-marker", "continue or abort when a round reports an error"},
	{"activity-threshold", "usage ratio above which a deployment counts as active"},
	{"slo-ms", "latency reference line in milliseconds"},
	{"round-interval", "minutes per round on chart x axes"},
	{"chart-width", "chart width in pixels"},
	{"chart-height", "chart height in pixels"},
	{"db-path", "export runs to this DuckDB database"},
	{"manifest", "YAML file listing runs"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("roundstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: roundstat [flags] <file> <label> [<file> <label> ...]\n\n")
		fs.PrintDefaults()
	}

	var configPath string
	var showVersion bool
	fs.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/roundwatch/roundstat.yml)")
	fs.BoolVar(&showVersion, "version", false, "print version information")
	for _, o := range overridable {
		fs.String(o.key, "", o.usage)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if showVersion {
		fmt.Fprintf(stdout, "roundstat - round log analyzer\n")
		fmt.Fprintf(stdout, "  Version:    %s\n", version)
		fmt.Fprintf(stdout, "  Commit:     %s\n", commit)
		fmt.Fprintf(stdout, "  Built:      %s\n", buildTime)
		fmt.Fprintf(stdout, "  Go version: %s\n", goVersion)
		return exitOK
	}

	overrides := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" && f.Name != "version" {
			overrides[f.Name] = f.Value.String()
		}
	})

	cfg, err := analysis.LoadConfig("roundstat", "ROUNDSTAT", configPath, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitError
	}

	inputs, err := analysis.Inputs(cfg, fs.Args())
	if err != nil {
		return fail(stderr, fs, err)
	}

	a, err := analysis.Analyze(ctx, cfg, inputs)
	if err != nil {
		return fail(stderr, fs, err)
	}

	if err := writeReport(stdout, cfg, a); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if len(a.Skipped) > 0 {
		for _, in := range a.Skipped {
			fmt.Fprintf(stderr, "Error: %s (%s): %v\n", in.Path, in.Label, model.ErrMissingInput)
		}
		return exitError
	}
	return exitOK
}

func fail(stderr io.Writer, fs *flag.FlagSet, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, model.ErrUsage) {
		fs.Usage()
		return exitUsage
	}
	return exitError
}

// writeReport renders the per-run chart set for a single run, or the
// comparative charts and summary for several.
func writeReport(w io.Writer, cfg analysis.Config, a *analysis.Analysis) error {
	sink, err := chart.NewPNGSink(cfg.OutDir, cfg.ChartWidth, cfg.ChartHeight)
	if err != nil {
		return err
	}

	for _, r := range a.Results {
		if n := len(r.Report.Diagnostics); n > 0 {
			log.Printf("roundstat: %s: %d rounds, %d diagnostics", r.Report.Label, r.Report.Rounds, n)
		}
	}

	var charts []chart.Chart
	if len(a.Results) == 1 {
		charts = report.RunCharts(a.Results[0].Run, cfg.RoundInterval)
	} else {
		charts = report.ComparisonCharts(a.Comparison, cfg.RoundInterval)
	}
	paths, renderErr := report.RenderAll(sink, charts)
	for _, p := range paths {
		fmt.Fprintf(w, "wrote %s\n", p)
	}

	if len(a.Results) > 1 {
		fmt.Fprintln(w)
		if err := report.WriteSummary(w, a.Comparison); err != nil {
			return err
		}
		if bars := report.SummaryBars(a.Comparison, barWidth, barHeight); bars != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, bars)
		}
	}
	return renderErr
}
