// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location (in order of precedence):
//   - path passed on the command line (--config)
//   - ~/.parley/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	// Backend configuration (hosted identity + message collection)
	Backend BackendConfig `toml:"backend"`

	// Cache configuration (local offline snapshot store)
	Cache CacheConfig `toml:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// DevServer configuration (parleyd, the local development backend)
	DevServer DevServerConfig `toml:"devserver"`
}

// BackendConfig contains the hosted backend endpoints.
type BackendConfig struct {
	// BaseURL is the HTTP base URL of the backend; the websocket endpoint
	// for the live query is derived from it.
	BaseURL string `toml:"base_url"`
}

// CacheConfig contains local cache settings.
type CacheConfig struct {
	// Dir is the state directory holding the cache database and the
	// persisted session. Default: ~/.parley
	Dir string `toml:"dir"`
}

// UIConfig contains user interface settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`

	// ImageQuality is the JPEG re-encode quality for picked photos (1-100).
	ImageQuality int `toml:"image_quality"`
}

// DevServerConfig contains settings for the parleyd development backend.
type DevServerConfig struct {
	// ListenAddr is the address parleyd binds to.
	ListenAddr string `toml:"listen_addr"`

	// JWTSecret signs session tokens. Development only; when empty,
	// parleyd generates an ephemeral per-process secret, so sessions
	// do not survive a restart.
	JWTSecret string `toml:"jwt_secret"`

	// MaxMessageBytes caps the append request body, bounding inline
	// image payloads.
	MaxMessageBytes int `toml:"max_message_bytes"`

	// RateLimitPerSec caps requests per client IP per second.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8787",
		},
		Cache: CacheConfig{
			Dir: "", // resolved to ~/.parley by SetDefaults
		},
		UI: UIConfig{
			Theme:        "dark",
			ImageQuality: 50,
		},
		DevServer: DevServerConfig{
			ListenAddr:      ":8787",
			JWTSecret:       "",
			MaxMessageBytes: 1 * 1024 * 1024,
			RateLimitPerSec: 25,
		},
	}
}

// StateDir returns the default state directory (~/.parley).
func StateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".parley"), nil
}

// DefaultPath returns the default config file path (~/.parley/config.toml).
func DefaultPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SetDefaults fills empty fields with sane values.
func (c *Config) SetDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8787"
	}
	if c.Cache.Dir == "" {
		if dir, err := StateDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "dark"
	}
	if c.UI.ImageQuality <= 0 || c.UI.ImageQuality > 100 {
		c.UI.ImageQuality = 50
	}
	if c.DevServer.ListenAddr == "" {
		c.DevServer.ListenAddr = ":8787"
	}
	if c.DevServer.MaxMessageBytes <= 0 {
		c.DevServer.MaxMessageBytes = 1 * 1024 * 1024
	}
	if c.DevServer.RateLimitPerSec <= 0 {
		c.DevServer.RateLimitPerSec = 25
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from path (or the default location when path
// is empty), applies environment overrides, defaults, and validation. A
// missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PARLEY_* environment variables on top of the
// loaded configuration. Environment wins over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PARLEY_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("PARLEY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("PARLEY_LISTEN_ADDR"); v != "" {
		c.DevServer.ListenAddr = v
	}
	if v := os.Getenv("PARLEY_JWT_SECRET"); v != "" {
		c.DevServer.JWTSecret = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

// Error implements the error interface.
func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("invalid URL %q, must be http or https", c.Backend.BaseURL),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q, must be one of: dark, light", c.UI.Theme),
		})
	}

	if c.UI.ImageQuality < 1 || c.UI.ImageQuality > 100 {
		errs = append(errs, ValidationError{
			Field:   "ui.image_quality",
			Message: "must be between 1 and 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
