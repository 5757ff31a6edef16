// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the settings of the rrt CLI and service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianRRT/pkg/logging"
	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
)

// configValidate checks the validate struct tags of Config.
var configValidate = validator.New()

// Config contains all rrt configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	// Planner contains the settings of a single planning run.
	Planner PlannerConfig `json:"planner" yaml:"planner"`

	// Journal contains run journal storage settings.
	Journal JournalConfig `json:"journal" yaml:"journal"`

	// Runner contains batch execution settings.
	Runner RunnerConfig `json:"runner" yaml:"runner"`

	// Server contains HTTP API settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Observability contains logging, tracing and metrics settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// PlannerConfig contains planning run settings.
type PlannerConfig struct {
	// Maze is a maze file; empty selects the built-in demo maze.
	Maze   string        `json:"maze" yaml:"maze"`
	Seed   uint64        `json:"seed" yaml:"seed"`
	Cache  string        `json:"cache" yaml:"cache" validate:"oneof=hashed linear"`
	Budget budget.Config `json:"budget" yaml:"budget"`
}

// JournalConfig contains run journal settings.
type JournalConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir" yaml:"dir"`
	InMemory   bool   `json:"in_memory" yaml:"in_memory"`
	SyncWrites bool   `json:"sync_writes" yaml:"sync_writes"`
}

// RunnerConfig contains batch execution settings.
type RunnerConfig struct {
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" validate:"gte=1,lte=256"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr" validate:"required"`
	RateLimit      float64       `json:"rate_limit" yaml:"rate_limit" validate:"gt=0"`
	RateBurst      int           `json:"rate_burst" yaml:"rate_burst" validate:"gte=1"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	MaxMazeBytes   int           `json:"max_maze_bytes" yaml:"max_maze_bytes" validate:"gte=16"`
}

// ObservabilityConfig contains observability settings.
type ObservabilityConfig struct {
	TracingEnabled bool    `json:"tracing_enabled" yaml:"tracing_enabled"`
	MetricsEnabled bool    `json:"metrics_enabled" yaml:"metrics_enabled"`
	LogLevel       string  `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string  `json:"log_format" yaml:"log_format" validate:"oneof=json text"`
	LogDir         string  `json:"log_dir" yaml:"log_dir"`
	TraceExporter  string  `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string  `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`
	ServiceName    string  `json:"service_name" yaml:"service_name" validate:"required"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Planner: PlannerConfig{
			Seed:   1,
			Cache:  "hashed",
			Budget: budget.DefaultConfig(),
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     defaultJournalDir(),
		},
		Runner: RunnerConfig{
			MaxConcurrency: 4,
		},
		Server: ServerConfig{
			Addr:           ":12230",
			RateLimit:      20,
			RateBurst:      40,
			RequestTimeout: 60 * time.Second,
			MaxMazeBytes:   64 * 1024,
		},
		Observability: ObservabilityConfig{
			TracingEnabled: true,
			MetricsEnabled: true,
			LogLevel:       "info",
			LogFormat:      "json",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRate:     1.0,
			ServiceName:    "aleutian-rrt",
		},
	}
}

func defaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rrt/journal"
	}
	return home + "/.rrt/journal"
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to YAML/JSON config file (optional, can be empty).
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if a named file is missing or invalid, an env value does not parse, or
//     the result fails validation.
func Load(configPath string) (Config, error) {
	config := Default()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadConfigFromEnv(&config); err != nil {
		return config, fmt.Errorf("load config from env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

// envVar binds one RRT_* variable to a field setter.
type envVar struct {
	name string
	set  func(c *Config, v string) error
}

var envVars = []envVar{
	{"RRT_MAZE", func(c *Config, v string) error { c.Planner.Maze = v; return nil }},
	{"RRT_SEED", func(c *Config, v string) (err error) { c.Planner.Seed, err = strconv.ParseUint(v, 10, 64); return }},
	{"RRT_CACHE", func(c *Config, v string) error { c.Planner.Cache = v; return nil }},
	{"RRT_MAX_ITERATIONS", func(c *Config, v string) (err error) { c.Planner.Budget.MaxIterations, err = strconv.Atoi(v); return }},
	{"RRT_MAX_NODES", func(c *Config, v string) (err error) { c.Planner.Budget.MaxNodes, err = strconv.Atoi(v); return }},
	{"RRT_TIME_LIMIT", func(c *Config, v string) (err error) { c.Planner.Budget.TimeLimit, err = time.ParseDuration(v); return }},

	{"RRT_JOURNAL_ENABLED", func(c *Config, v string) (err error) { c.Journal.Enabled, err = strconv.ParseBool(v); return }},
	{"RRT_JOURNAL_DIR", func(c *Config, v string) error { c.Journal.Dir = v; return nil }},
	{"RRT_JOURNAL_IN_MEMORY", func(c *Config, v string) (err error) { c.Journal.InMemory, err = strconv.ParseBool(v); return }},

	{"RRT_MAX_CONCURRENCY", func(c *Config, v string) (err error) { c.Runner.MaxConcurrency, err = strconv.Atoi(v); return }},

	{"RRT_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"RRT_RATE_LIMIT", func(c *Config, v string) (err error) { c.Server.RateLimit, err = strconv.ParseFloat(v, 64); return }},
	{"RRT_RATE_BURST", func(c *Config, v string) (err error) { c.Server.RateBurst, err = strconv.Atoi(v); return }},

	{"RRT_TRACING_ENABLED", func(c *Config, v string) (err error) { c.Observability.TracingEnabled, err = strconv.ParseBool(v); return }},
	{"RRT_METRICS_ENABLED", func(c *Config, v string) (err error) { c.Observability.MetricsEnabled, err = strconv.ParseBool(v); return }},
	{"RRT_LOG_LEVEL", func(c *Config, v string) error { c.Observability.LogLevel = strings.ToLower(v); return nil }},
	{"RRT_LOG_FORMAT", func(c *Config, v string) error { c.Observability.LogFormat = strings.ToLower(v); return nil }},
	{"RRT_LOG_DIR", func(c *Config, v string) error { c.Observability.LogDir = v; return nil }},
	{"RRT_TRACE_EXPORTER", func(c *Config, v string) error { c.Observability.TraceExporter = v; return nil }},
	{"RRT_METRIC_EXPORTER", func(c *Config, v string) error { c.Observability.MetricExporter = v; return nil }},
	{"RRT_OTLP_ENDPOINT", func(c *Config, v string) error { c.Observability.OTLPEndpoint = v; return nil }},
	{"RRT_SERVICE_NAME", func(c *Config, v string) error { c.Observability.ServiceName = v; return nil }},
}

func loadConfigFromEnv(config *Config) error {
	var errs []error
	for _, ev := range envVars {
		v := os.Getenv(ev.name)
		if v == "" {
			continue
		}
		if err := ev.set(config, v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", ev.name, v, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: Non-nil if configuration is invalid.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return err
	}
	b := c.Planner.Budget
	if b.MaxIterations == 0 && b.MaxNodes == 0 && b.TimeLimit == 0 {
		return fmt.Errorf("planner budget needs at least one of max_iterations, max_nodes, time_limit")
	}
	if c.Journal.Enabled && !c.Journal.InMemory && c.Journal.Dir == "" {
		return fmt.Errorf("journal dir is required unless in_memory is set")
	}
	if c.Observability.TraceExporter == "otlp" && c.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("otlp_endpoint is required for the otlp trace exporter")
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c ObservabilityConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the process logger writing to w, plus the log file
// when LogDir is set. The caller closes the returned Logger.
func (c ObservabilityConfig) NewLogger(w io.Writer) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:   c.SlogLevel(),
		JSON:    c.LogFormat != "text",
		Output:  w,
		LogDir:  c.LogDir,
		Service: c.ServiceName,
	})
}
