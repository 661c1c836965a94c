// Package analysis holds the configuration and load path shared by the
// offline binaries.
package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/ingest"
	"github.com/tinytelemetry/roundwatch/internal/model"
)

const (
	defaultChartWidth  = 1000
	defaultChartHeight = 600
)

// Config is the offline analysis configuration.
type Config struct {
	OutDir            string  `mapstructure:"out-dir"`
	OnErrorMarker     string  `mapstructure:"on-error-marker"`
	ActivityThreshold float64 `mapstructure:"activity-threshold"`
	SLOMillis         float64 `mapstructure:"slo-ms"`
	RoundInterval     float64 `mapstructure:"round-interval"`
	ChartWidth        int     `mapstructure:"chart-width"`
	ChartHeight       int     `mapstructure:"chart-height"`
	DBPath            string  `mapstructure:"db-path"`
	Manifest          string  `mapstructure:"manifest"`

	ConfigPath string             `mapstructure:"-"`
	Policy     ingest.ErrorPolicy `mapstructure:"-"`
}

// Aggregate returns the comparison thresholds.
func (c Config) Aggregate() aggregate.Config {
	return aggregate.Config{
		ActivityThreshold: c.ActivityThreshold,
		SLOMillis:         c.SLOMillis,
	}
}

// Ingest returns the ingestion options.
func (c Config) Ingest() ingest.Options {
	return ingest.Options{Policy: c.Policy}
}

// LoadConfig reads configuration for the binary called name. Keys come from
// defaults, then the config file (default ~/.config/roundwatch/<name>.yml),
// then <ENVPREFIX>_* variables, then overrides, typically flags the user set.
func LoadConfig(name, envPrefix, configPath string, overrides map[string]any) (Config, error) {
	var cfg Config

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("out-dir", model.DefaultChartDir)
	v.SetDefault("on-error-marker", ingest.PolicyContinue.String())
	v.SetDefault("activity-threshold", model.DefaultActivityThreshold)
	v.SetDefault("slo-ms", model.DefaultSLOMillis)
	v.SetDefault("round-interval", model.DefaultRoundInterval)
	v.SetDefault("chart-width", defaultChartWidth)
	v.SetDefault("chart-height", defaultChartHeight)
	v.SetDefault("db-path", "")
	v.SetDefault("manifest", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "roundwatch", name+".yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	policy, err := ingest.ParsePolicy(cfg.OnErrorMarker)
	if err != nil {
		return cfg, fmt.Errorf("invalid on-error-marker: %w", err)
	}
	cfg.Policy = policy

	if strings.TrimSpace(cfg.OutDir) == "" {
		return cfg, errors.New("invalid out-dir: path is empty")
	}
	if cfg.ActivityThreshold < 0 || cfg.ActivityThreshold >= 1 {
		return cfg, fmt.Errorf("invalid activity-threshold: %g (want 0 <= t < 1)", cfg.ActivityThreshold)
	}
	if cfg.SLOMillis <= 0 {
		return cfg, fmt.Errorf("invalid slo-ms: %g", cfg.SLOMillis)
	}
	if cfg.RoundInterval <= 0 {
		return cfg, fmt.Errorf("invalid round-interval: %g", cfg.RoundInterval)
	}
	if cfg.ChartWidth <= 0 || cfg.ChartHeight <= 0 {
		return cfg, fmt.Errorf("invalid chart size: %dx%d", cfg.ChartWidth, cfg.ChartHeight)
	}

	cfg.OutDir = expandHome(home, cfg.OutDir)
	cfg.DBPath = expandHome(home, cfg.DBPath)
	cfg.Manifest = expandHome(home, cfg.Manifest)

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
