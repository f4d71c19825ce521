// Package config loads and validates the streamstats engine
// configuration: the sliding-window duration and the quantile targets
// the sketch must answer accurately.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/streamstats"
)

// Config holds the tunables of the statistics engine.
type Config struct {
	// WindowSeconds is the sliding-window bucket size in whole seconds.
	WindowSeconds int `yaml:"window_seconds"`

	// Targets lists the quantiles to track and their allowed rank
	// error.
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig is one (quantile, allowed rank error) pair.
type TargetConfig struct {
	Quantile float64 `yaml:"quantile"`
	Error    float64 `yaml:"error"`
}

// Default returns the configuration matching the engine defaults: a 30
// second window with at most 0.1% rank error at P99 and P50.
func Default() *Config {
	return &Config{
		WindowSeconds: 30,
		Targets: []TargetConfig{
			{Quantile: 0.99, Error: 0.001},
			{Quantile: 0.5, Error: 0.001},
		},
	}
}

// Load reads a YAML configuration file, applies defaults for missing
// fields, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.WindowSeconds <= 0 {
		errs = append(errs, errors.New("window_seconds must be positive"))
	}
	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("at least one quantile target is required"))
	}
	for _, t := range c.Targets {
		if t.Quantile <= 0 || t.Quantile > 1 {
			errs = append(errs, fmt.Errorf("target quantile %v: must be in (0, 1]", t.Quantile))
		}
		if t.Error < 0 || t.Error >= 1 {
			errs = append(errs, fmt.Errorf("target error %v: must be in [0, 1)", t.Error))
		}
	}

	return errors.Join(errs...)
}

// Window returns the configured window duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// BuildTargets converts the configured target list into engine
// targets.
func (c *Config) BuildTargets() ([]streamstats.Target, error) {
	targets := make([]streamstats.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		target, err := streamstats.NewTarget(t.Quantile, t.Error)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// NewWindowedSample builds a WindowedSample from the configuration,
// failing fast on any invalid setting.
func (c *Config) NewWindowedSample() (*streamstats.WindowedSample, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	targets, err := c.BuildTargets()
	if err != nil {
		return nil, err
	}
	return streamstats.NewWindowedSample(c.Window(), targets)
}
