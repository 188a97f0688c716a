// Package config loads process configuration by layering defaults, an
// optional YAML file, and LEVELIZ_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/leveliz/internal/features"
)

// Config contains process configuration for the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ModelDir is where model artifacts are saved and loaded.
	ModelDir string `koanf:"model_dir"`

	// Scenario names the default ensemble weighting scenario.
	Scenario string `koanf:"scenario"`

	// Threshold overrides. When set they take precedence over both the
	// built-in defaults and data-derived thresholds.
	ScoreThreshold      *float64 `koanf:"score_threshold"`
	TimeThreshold       *float64 `koanf:"time_threshold"`
	EfficiencyThreshold *float64 `koanf:"efficiency_threshold"`
	PercentileThreshold *float64 `koanf:"percentile_threshold"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		ModelDir: "models",
		Scenario: "default",
	}
}

// Load builds a Config by layering defaults, an optional file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LEVELIZ_CONFIG is set
//  3. env (prefix LEVELIZ_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("LEVELIZ_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Map env keys like LEVELIZ_MODEL_DIR -> model_dir, preserving
	// underscores to match the koanf tags.
	envProvider := env.Provider("LEVELIZ_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "leveliz_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.ModelDir == "" {
		return nil, errors.New("model_dir must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("log_level must be one of debug, info, warn, error")
	}
	return &cfg, nil
}

// ApplyThresholds overlays the configured overrides onto a base
// threshold set (typically data-derived).
func (c *Config) ApplyThresholds(base features.Thresholds) features.Thresholds {
	if c.ScoreThreshold != nil {
		base.Score = *c.ScoreThreshold
	}
	if c.TimeThreshold != nil {
		base.Time = *c.TimeThreshold
	}
	if c.EfficiencyThreshold != nil {
		base.Efficiency = *c.EfficiencyThreshold
	}
	if c.PercentileThreshold != nil {
		base.Percentile = *c.PercentileThreshold
	}
	return base
}
