package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/roundwatch/internal/httpserver"
	"github.com/tinytelemetry/roundwatch/internal/roundfile"
	"github.com/tinytelemetry/roundwatch/internal/watcher"
	"golang.org/x/sync/errgroup"
)

// runWatcher tails the configured stream and appends complete rounds to the
// output file until interrupted.
func runWatcher(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	plugin, err := selectInput(buildInputPlugins(newInputPluginConfig(cfg)))
	if err != nil {
		return err
	}

	var opts []roundfile.Option
	if cfg.TruncateOutput {
		opts = append(opts, roundfile.WithTruncate())
	}
	out, err := roundfile.Open(cfg.Output, opts...)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	var echo io.Writer
	if cfg.Echo {
		echo = os.Stdout
	}
	w := watcher.New(sourceFactory(plugin), out, watcher.Config{
		Cooldown:   cfg.Cooldown,
		Restart:    cfg.Restart && plugin.Restartable(),
		Echo:       echo,
		SourceName: plugin.Name(),
		OutputPath: out.Path(),
		Metrics:    watcher.NewMetrics(),
	})

	// Start HTTP API server if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, w, w.Metrics().Registry())
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nForce shutdown.")
		case <-deadline.C:
			fmt.Fprintln(os.Stderr, "Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, plugin)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})

	err = g.Wait()
	cancel()
	signal.Stop(sigCh)

	st := w.Status()
	log.Printf("roundwatch: stopped after %d rounds (%d discarded, %d flush errors)",
		st.RoundsFlushed, st.RoundsDropped, st.FlushErrors)
	return err
}

// configureRuntimeLogger sends log output to path, or to stderr when path is
// empty so that echoed lines on stdout stay clean.
func configureRuntimeLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if path == "" {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, plugin InputSourcePlugin) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("roundwatch")+" "+dim.Render("v"+version))
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Stream"))
	lines = append(lines, "")
	source := plugin.Name()
	if plugin.Name() == sourceProcess {
		source = strings.Join(newInputPluginConfig(cfg).Command, " ")
	}
	lines = append(lines, fmt.Sprintf("    %s  Source         %s", check, cyan.Render(source)))
	if cfg.Restart && plugin.Restartable() {
		lines = append(lines, fmt.Sprintf("    %s  Restart        %s", check, dim.Render("after "+cfg.Cooldown.String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Restart        %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Output"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Rounds         %s", check, dim.Render(shortenPath(cfg.Output))))
	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Fprintln(os.Stderr, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
