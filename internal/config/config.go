package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Color modes for terminal output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the runtime configuration of the resolver tooling.
type Config struct {
	Resolution struct {
		// MaxDepth bounds nested candidate frames before DepthExceeded is reported.
		MaxDepth int `yaml:"max_depth"`
		// Parallel is the number of sites resolved concurrently (0 = one per CPU).
		Parallel int `yaml:"parallel"`
	} `yaml:"resolution"`
	Output struct {
		Color   string `yaml:"color"`   // auto, always, never
		Verbose bool   `yaml:"verbose"` // log resolution steps to stderr
	} `yaml:"output"`
	Storage struct {
		// Path of the SQLite report archive. Empty disables archiving.
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Resolution.MaxDepth = MaxResolutionDepth
	cfg.Output.Color = ColorAuto
	return cfg
}

// LoadConfig reads .env (if any), then the YAML file at path (if any), then
// applies GIVENS_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if v := os.Getenv("GIVENS_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("GIVENS_MAX_DEPTH: %w", err)
		}
		cfg.Resolution.MaxDepth = n
	}
	if v := os.Getenv("GIVENS_COLOR"); v != "" {
		cfg.Output.Color = v
	}
	if v := os.Getenv("GIVENS_DB"); v != "" {
		cfg.Storage.Path = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Resolution.MaxDepth <= 0 {
		c.Resolution.MaxDepth = MaxResolutionDepth
	}
	if c.Resolution.Parallel < 0 {
		return fmt.Errorf("resolution.parallel must be >= 0, got %d", c.Resolution.Parallel)
	}
	switch c.Output.Color {
	case "":
		c.Output.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("output.color must be one of auto, always, never; got %q", c.Output.Color)
	}
	return nil
}
