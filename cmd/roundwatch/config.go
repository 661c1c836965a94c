package main

import (
	"time"

	"github.com/tinytelemetry/roundwatch/internal/logsource"
	"github.com/tinytelemetry/roundwatch/internal/model"
)

const (
	defaultSource      = sourceProcess
	defaultDeployment  = "watcher"
	defaultNamespace   = "default"
	defaultOutput      = model.DefaultOutputPath
	defaultCooldown    = model.DefaultCooldown
	defaultMaxLineSize = logsource.DefaultMaxLineSize
	defaultAPIAddr     = "127.0.0.1:3100"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Source         string        `mapstructure:"source"`
	Command        string        `mapstructure:"command"`
	Deployment     string        `mapstructure:"deployment"`
	Namespace      string        `mapstructure:"namespace"`
	Output         string        `mapstructure:"output"`
	TruncateOutput bool          `mapstructure:"truncate-output"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	Restart        bool          `mapstructure:"restart"`
	Echo           bool          `mapstructure:"echo"`
	MaxLineSize    int           `mapstructure:"max-line-size"`
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIAddr        string        `mapstructure:"api-addr"`
	LogFile        string        `mapstructure:"log-file"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}
