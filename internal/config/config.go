// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunables for the service and CLI.
type Config struct {
	Addr              string `yaml:"addr"`
	MaxUploadMB       int    `yaml:"max_upload_mb"`
	ExecTimeoutSecs   int    `yaml:"exec_timeout_seconds"`
	LiveDebounceMS    int    `yaml:"live_debounce_ms"`
	SlowDebounceMS    int    `yaml:"slow_debounce_ms"`
	HistoryLimit      int    `yaml:"history_limit"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		Addr:              ":8080",
		MaxUploadMB:       10,
		ExecTimeoutSecs:   30,
		LiveDebounceMS:    50,
		SlowDebounceMS:    300,
		HistoryLimit:      50,
		SessionTTLMinutes: 30,
	}
}

// Load merges a YAML file (if path is non-empty) and environment
// variables over the defaults. Environment wins.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if addr := os.Getenv("PIXEDIT_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if err := envInt("PIXEDIT_MAX_UPLOAD_MB", &cfg.MaxUploadMB); err != nil {
		return cfg, err
	}
	if err := envInt("PIXEDIT_EXEC_TIMEOUT_SECONDS", &cfg.ExecTimeoutSecs); err != nil {
		return cfg, err
	}
	if err := envInt("PIXEDIT_HISTORY_LIMIT", &cfg.HistoryLimit); err != nil {
		return cfg, err
	}

	if cfg.MaxUploadMB <= 0 || cfg.ExecTimeoutSecs <= 0 || cfg.HistoryLimit <= 0 {
		return cfg, fmt.Errorf("config: limits must be positive")
	}
	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

// ExecTimeout returns the per-invocation execution budget.
func (c Config) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutSecs) * time.Second
}

// LiveDebounce returns the debounce for live-only edits.
func (c Config) LiveDebounce() time.Duration {
	return time.Duration(c.LiveDebounceMS) * time.Millisecond
}

// SlowDebounce returns the debounce for edits needing the full pipeline.
func (c Config) SlowDebounce() time.Duration {
	return time.Duration(c.SlowDebounceMS) * time.Millisecond
}

// SessionTTL returns the idle session lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// MaxUploadBytes returns the upload cap in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
