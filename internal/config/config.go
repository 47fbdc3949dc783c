// Package config loads the YAML settings shared by the CLI, the batch runner and the server.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/circleopt/internal/opt"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration. Fields missing from the file keep their defaults.
type Config struct {
	Log      LogConfig        `json:"log" yaml:"log"`
	Circle   opt.CircleConfig `json:"circle" yaml:"circle"`
	Interval IntervalConfig   `json:"interval" yaml:"interval"`
	Batch    BatchConfig      `json:"batch" yaml:"batch"`
	Server   ServerConfig     `json:"server" yaml:"server"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// IntervalConfig configures the gradient and secant optimizers.
type IntervalConfig struct {
	Epsilon       float64 `json:"epsilon" yaml:"epsilon"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
}

type BatchConfig struct {
	// Concurrency limits how many problems are solved at once.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

type ServerConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Circle: opt.DefaultCircleConfig(),
		Interval: IntervalConfig{
			Epsilon:       opt.DefaultIntervalEpsilon,
			MaxIterations: opt.DefaultIntervalMaxIterations,
		},
		Batch: BatchConfig{Concurrency: 4},
		Server: ServerConfig{
			Addr:    "localhost:8080",
			DataDir: "./data",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies CIRCLEOPT_*
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CIRCLEOPT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CIRCLEOPT_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CIRCLEOPT_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("CIRCLEOPT_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Concurrency = n
		}
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := c.Circle.Validate(); err != nil {
		return err
	}
	if c.Interval.Epsilon <= 0 {
		return errors.New("interval.epsilon must be positive")
	}
	if c.Interval.MaxIterations <= 0 {
		return errors.New("interval.max_iterations must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
