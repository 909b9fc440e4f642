package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wildfunctions/genetic_poly/pkg/strategy"
)

// ErrInvalidConfig is returned by New and Config.Validate for unusable
// construction parameters, including an empty or non-finite data set.
var ErrInvalidConfig = errors.New("engine: invalid config")

// Config holds all parameters for an evolutionary run.
type Config struct {
	Population int             `yaml:"population" json:"population"`
	Degree     int             `yaml:"degree" json:"degree"`
	Strategy   string          `yaml:"strategy" json:"strategy"`
	Pool       string          `yaml:"pool" json:"pool"`
	Params     strategy.Params `yaml:"params" json:"params"`
	Seed       int64           `yaml:"seed" json:"seed"`
	Workers    int             `yaml:"workers" json:"workers"`

	// ObserverBuffer is the per-subscriber queue length; snapshots beyond it are dropped.
	ObserverBuffer int `yaml:"observer_buffer" json:"observer_buffer"`

	// Run driver settings.
	Generations     int     `yaml:"generations" json:"generations"` // <= 0 runs until cancelled
	StagnationLimit int     `yaml:"stagnation_limit" json:"stagnation_limit"`
	Tolerance       float64 `yaml:"tolerance" json:"tolerance"` // stop once best MAE <= Tolerance
	Format          string  `yaml:"format" json:"format"`       // "text" or "json"
	Verbose         bool    `yaml:"verbose" json:"verbose"`
	OutDir          string  `yaml:"out_dir" json:"out_dir,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Population:      100,
		Degree:          2,
		Strategy:        "truncation",
		Pool:            "uniform",
		Params:          strategy.DefaultParams(),
		Seed:            0, // 0 = random
		Workers:         runtime.NumCPU(),
		ObserverBuffer:  64,
		Generations:     1000,
		StagnationLimit: 200,
		Tolerance:       0,
		Format:          "text",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// yields the defaults. Environment overrides are applied last.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets POLYFIT_* variables override file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POLYFIT_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = seed
		}
	}
	if v := os.Getenv("POLYFIT_WORKERS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil {
			c.Workers = w
		}
	}
	if v := os.Getenv("POLYFIT_STRATEGY"); v != "" {
		c.Strategy = v
	}
	if v := os.Getenv("POLYFIT_POOL"); v != "" {
		c.Pool = v
	}
}

// Validate checks the construction parameters. Strategy and pool names are
// resolved by New.
func (c Config) Validate() error {
	if c.Population < 2 {
		return fmt.Errorf("%w: population %d < 2", ErrInvalidConfig, c.Population)
	}
	if c.Degree < 0 {
		return fmt.Errorf("%w: degree %d < 0", ErrInvalidConfig, c.Degree)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ObserverBuffer < 1 {
		return fmt.Errorf("%w: observer buffer %d < 1", ErrInvalidConfig, c.ObserverBuffer)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g < 0", ErrInvalidConfig, c.Tolerance)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	return nil
}
