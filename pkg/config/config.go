// Package config loads the demonstration node's JSON configuration: a
// plain struct with a DefaultConfig, a LoadConfig that reads a JSON file
// over the defaults and then applies environment overrides, and a
// Validate that runs last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RuntimeConfig configures the runtime cache's engine.
type RuntimeConfig struct {
	DefaultHeapPages uint64 `json:"default_heap_pages"`
	ExecutionMethod  string `json:"execution_method"`
}

// SyncConfig configures the block collection scheduler.
type SyncConfig struct {
	RequestCount  uint64 `json:"request_count"`
	MaxParallel   int    `json:"max_parallel"`
}

// LoggingConfig selects the zap logging level.
type LoggingConfig struct {
	Level string `json:"level"`
}

// Config is the demonstration node's top-level configuration.
type Config struct {
	Runtime RuntimeConfig `json:"runtime"`
	Sync    SyncConfig    `json:"sync"`
	Logging LoggingConfig `json:"logging"`
}

// DefaultConfig returns a Config with conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			DefaultHeapPages: 2048,
			ExecutionMethod:  "interpreted",
		},
		Sync: SyncConfig{
			RequestCount: 128,
			MaxParallel:  1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from configPath over the defaults, then
// applies environment overrides and validates the result. An empty
// configPath or a missing file yields the defaults unchanged.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	if val := os.Getenv("NODALCHAIN_HEAP_PAGES"); val != "" {
		if pages, err := strconv.ParseUint(val, 10, 64); err == nil {
			c.Runtime.DefaultHeapPages = pages
		}
	}
	if val := os.Getenv("NODALCHAIN_EXECUTION_METHOD"); val != "" {
		c.Runtime.ExecutionMethod = val
	}
	if val := os.Getenv("NODALCHAIN_SYNC_COUNT"); val != "" {
		if count, err := strconv.ParseUint(val, 10, 64); err == nil {
			c.Sync.RequestCount = count
		}
	}
	if val := os.Getenv("NODALCHAIN_MAX_PARALLEL"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Sync.MaxParallel = n
		}
	}
	if val := os.Getenv("NODALCHAIN_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// Validate rejects a configuration that would make the node unable to
// start cleanly.
func (c *Config) Validate() error {
	if c.Runtime.DefaultHeapPages == 0 {
		return fmt.Errorf("runtime.default_heap_pages must be positive")
	}
	method := strings.ToLower(c.Runtime.ExecutionMethod)
	if method != "interpreted" && method != "compiled" {
		return fmt.Errorf("runtime.execution_method must be \"interpreted\" or \"compiled\", got %q", c.Runtime.ExecutionMethod)
	}
	if c.Sync.RequestCount == 0 {
		return fmt.Errorf("sync.request_count must be positive")
	}
	if c.Sync.MaxParallel <= 0 {
		return fmt.Errorf("sync.max_parallel must be positive")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
