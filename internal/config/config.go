// Package config provides configuration loading and validation for the board service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/stages"
)

// Config represents the service configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Server
	Port int `json:"port,omitempty"` // HTTP port

	// Pipeline
	StagesFile  string              `json:"stages_file,omitempty"` // YAML stage catalog; built-in stages when empty
	Transitions map[string][]string `json:"transitions,omitempty"` // Permitted moves; unrestricted when empty

	// Behavior
	ActivationDistance float64 `json:"activation_distance,omitempty"` // Drag activation threshold in pixels
	BulkConcurrency    int     `json:"bulk_concurrency,omitempty"`    // Max concurrent commits per bulk action
	Actor              string  `json:"actor,omitempty"`               // Actor recorded on history events
	AtomicHistory      *bool   `json:"atomic_history,omitempty"`      // Commit stage and history in one transaction
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	atomic := true
	return Config{
		Port:               8080,
		ActivationDistance: board.DefaultActivationDistance,
		BulkConcurrency:    board.DefaultBulkConcurrency,
		Actor:              "board",
		AtomicHistory:      &atomic,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.ActivationDistance < 0 {
		return fmt.Errorf("config error: 'activation_distance' must be non-negative")
	}
	if c.BulkConcurrency < 0 {
		return fmt.Errorf("config error: 'bulk_concurrency' must be non-negative")
	}

	if c.StagesFile != "" {
		if _, err := os.Stat(c.StagesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: stages file not found: %s", c.StagesFile)
		}
	}

	if len(c.Transitions) > 0 {
		reg, err := c.Registry()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		for from, tos := range c.Transitions {
			if !reg.IsValid(from) {
				return fmt.Errorf("config error: transitions reference unknown stage %q", from)
			}
			for _, to := range tos {
				if !reg.IsValid(to) {
					return fmt.Errorf("config error: transitions reference unknown stage %q", to)
				}
			}
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.StagesFile == "" {
		result.StagesFile = defaults.StagesFile
	}
	if result.Actor == "" {
		result.Actor = defaults.Actor
	}
	if result.Transitions == nil {
		result.Transitions = defaults.Transitions
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.BulkConcurrency == 0 {
		result.BulkConcurrency = defaults.BulkConcurrency
	}
	if result.ActivationDistance == 0 {
		result.ActivationDistance = defaults.ActivationDistance
	}
	if result.AtomicHistory == nil {
		result.AtomicHistory = defaults.AtomicHistory
	}

	return result
}

// Registry loads the configured stage catalog.
func (c *Config) Registry() (*stages.Registry, error) {
	if c.StagesFile == "" {
		return stages.Default(), nil
	}
	return stages.LoadFile(c.StagesFile)
}

// Policy returns the configured transition policy.
func (c *Config) Policy() *stages.Policy {
	if len(c.Transitions) == 0 {
		return stages.Unrestricted()
	}
	return stages.NewPolicy(c.Transitions)
}

// UseAtomicHistory reports whether stage commits and history appends share a transaction.
func (c *Config) UseAtomicHistory() bool {
	return c.AtomicHistory == nil || *c.AtomicHistory
}
