// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration lives in ~/.parley/config.toml, with sensible defaults and
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	// DataDir holds the conversation store and usage ledger.
	// Default: ~/.parley
	DataDir string `toml:"data_dir"`

	// DefaultModel is the model selected at startup.
	DefaultModel string `toml:"default_model"`

	// BaseURL overrides the API endpoint. Empty keeps the library default.
	BaseURL string `toml:"base_url"`

	// RequestTimeoutSecs bounds each completion call.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// MaxPersonalityLen caps persona edits, in runes.
	MaxPersonalityLen int `toml:"max_personality_len"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel:       "gpt-4o",
		RequestTimeoutSecs: 60,
		MaxPersonalityLen:  1000,
	}
}

// RequestTimeout returns the completion timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the configuration directory (~/.parley).
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".parley"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolveDataDir returns the effective data directory, falling back to the
// config directory when none is set.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return ConfigDir()
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file if present, then applies defaults, environment
// overrides, and validation. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values left by a partial config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.RequestTimeoutSecs == 0 {
		c.RequestTimeoutSecs = def.RequestTimeoutSecs
	}
	if c.MaxPersonalityLen == 0 {
		c.MaxPersonalityLen = def.MaxPersonalityLen
	}
}

// ApplyEnvOverrides applies environment variables over the loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("PARLEY_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PARLEY_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.RequestTimeoutSecs = secs
		}
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path with 0600 permissions.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to a specific path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# Generated by parley - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.DefaultModel == "" {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: "must not be empty",
		})
	}
	if c.RequestTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "request_timeout_secs",
			Message: "must be positive",
		})
	}
	if c.MaxPersonalityLen <= 0 {
		errs = append(errs, ValidationError{
			Field:   "max_personality_len",
			Message: "must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
