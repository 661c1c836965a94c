package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var once bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/roundwatch/roundwatch.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&once, "once", false, "exit when the stream ends instead of restarting after the cooldown")
	flag.Parse()

	if showVersion {
		fmt.Printf("roundwatch - round log watcher\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if once {
		cfg.Restart = false
	}

	if err := runWatcher(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ROUNDWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("source", defaultSource)
	v.SetDefault("command", "")
	v.SetDefault("deployment", defaultDeployment)
	v.SetDefault("namespace", defaultNamespace)
	v.SetDefault("output", defaultOutput)
	v.SetDefault("truncate-output", true)
	v.SetDefault("cooldown", defaultCooldown)
	v.SetDefault("restart", true)
	v.SetDefault("echo", true)
	v.SetDefault("max-line-size", defaultMaxLineSize)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("log-file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "roundwatch", "roundwatch.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if cfg.Source != sourceProcess && cfg.Source != sourceStdin {
		return cfg, fmt.Errorf("invalid source: %q (want %s or %s)", cfg.Source, sourceProcess, sourceStdin)
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return cfg, errors.New("invalid output: path is empty")
	}
	if cfg.Cooldown < 0 {
		return cfg, fmt.Errorf("invalid cooldown: %s", cfg.Cooldown)
	}
	if cfg.MaxLineSize <= 0 {
		return cfg, fmt.Errorf("invalid max-line-size: %d", cfg.MaxLineSize)
	}
	if cfg.Source == sourceProcess && strings.TrimSpace(cfg.Command) == "" &&
		(strings.TrimSpace(cfg.Deployment) == "" || strings.TrimSpace(cfg.Namespace) == "") {
		return cfg, errors.New("invalid process source: set command, or deployment and namespace")
	}

	cfg.Output = expandHome(home, cfg.Output)
	cfg.LogFile = expandHome(home, cfg.LogFile)

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
