// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"

	"github.com/jeranaias/jellycat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete jellycat configuration.
type Config struct {
	Version string `toml:"version"`

	// API is the chat backend the client talks to
	API APIConfig `toml:"api"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`

	// Server is the local development backend started by `jellycat serve`
	Server ServerConfig `toml:"server"`
}

// APIConfig locates the streaming chat endpoint.
type APIConfig struct {
	// URL is the backend origin, e.g. http://127.0.0.1:8080
	URL string `toml:"url" env:"JELLYCAT_API_URL"`
	// ChatPath is the streaming chat endpoint
	ChatPath string `toml:"chat_path" env:"JELLYCAT_CHAT_PATH"`
	// HealthPath is probed for the connection badge
	HealthPath string `toml:"health_path"`
	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs"`
}

// UIConfig contains render host preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" env:"JELLYCAT_THEME"`
	// ShowThoughts renders server progress notes above assistant replies
	ShowThoughts bool `toml:"show_thoughts"`
	// RenderMarkdown renders finished assistant replies with glamour
	RenderMarkdown bool `toml:"render_markdown"`
	// ExportDir receives chat exports (empty: current directory)
	ExportDir string `toml:"export_dir" env:"JELLYCAT_EXPORT_DIR"`
}

// LoggingConfig controls the rotated JSON log file.
type LoggingConfig struct {
	Level      string `toml:"level" env:"JELLYCAT_LOG_LEVEL"`
	File       string `toml:"file" env:"JELLYCAT_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	// Addr is the listen address
	Addr string `toml:"addr" env:"JELLYCAT_SERVE_ADDR"`
	// FramesPerSecond paces streamed frames (0 = unpaced)
	FramesPerSecond float64 `toml:"frames_per_second"`
	// RequestLogging enables the per-request log line
	RequestLogging bool `toml:"request_logging"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		API: APIConfig{
			URL:         "http://127.0.0.1:8080",
			ChatPath:    "/api/chat",
			HealthPath:  "/health",
			TimeoutSecs: 10,
		},
		UI: UIConfig{
			Theme:          "auto",
			ShowThoughts:   true,
			RenderMarkdown: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       defaultLogFile(),
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			FramesPerSecond: 20,
			RequestLogging:  true,
		},
	}
}

func defaultLogFile() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "logs", "jellycat.log")
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the jellycat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".jellycat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.jellycat/config.toml if it exists, applies environment
// overrides and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		if envErr := cfg.ApplyEnvOverrides(); envErr != nil {
			return nil, envErr
		}
		return cfg, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults fills in any blank values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// API
	if cfg.API.URL == "" {
		cfg.API.URL = defaults.API.URL
	}
	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	if cfg.API.ChatPath == "" {
		cfg.API.ChatPath = defaults.API.ChatPath
	}
	if cfg.API.HealthPath == "" {
		cfg.API.HealthPath = defaults.API.HealthPath
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	cfg.UI.Theme = strings.ToLower(cfg.UI.Theme)
	cfg.UI.ExportDir = util.ExpandHome(cfg.UI.ExportDir)

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	cfg.Logging.File = util.ExpandHome(cfg.Logging.File)

	// Server
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions, creating the parent
// directory if needed. The file is replaced atomically so a running Watch
// never loads a half-written config.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# jellycat configuration file\n")
	buf.WriteString("# Environment variables JELLYCAT_* override these values\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.API.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		result = multierror.Append(result, ValidationError{
			Field:   "api.url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.API.URL),
		})
	}
	for _, p := range []struct{ field, path string }{
		{"api.chat_path", c.API.ChatPath},
		{"api.health_path", c.API.HealthPath},
	} {
		if !strings.HasPrefix(p.path, "/") {
			result = multierror.Append(result, ValidationError{
				Field:   p.field,
				Message: fmt.Sprintf("path '%s' must start with /", p.path),
			})
		}
	}
	if c.API.TimeoutSecs < 0 || c.API.TimeoutSecs > 300 {
		result = multierror.Append(result, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("timeout %d out of range (0-300)", c.API.TimeoutSecs),
		})
	}

	if !validThemes[c.UI.Theme] {
		result = multierror.Append(result, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		result = multierror.Append(result, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		result = multierror.Append(result, ValidationError{
			Field:   "logging",
			Message: "rotation limits must not be negative",
		})
	}

	if c.Server.Addr != "" && !strings.Contains(c.Server.Addr, ":") {
		result = multierror.Append(result, ValidationError{
			Field:   "server.addr",
			Message: fmt.Sprintf("invalid address '%s', must be host:port", c.Server.Addr),
		})
	}
	if c.Server.FramesPerSecond < 0 {
		result = multierror.Append(result, ValidationError{
			Field:   "server.frames_per_second",
			Message: "must not be negative",
		})
	}

	if result != nil {
		result.ErrorFormat = joinErrors
	}
	return result.ErrorOrNil()
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - JELLYCAT_API_URL: overrides api.url
//   - JELLYCAT_CHAT_PATH: overrides api.chat_path
//   - JELLYCAT_THEME: overrides ui.theme
//   - JELLYCAT_LOG_LEVEL: overrides logging.level
//   - JELLYCAT_LOG_FILE: overrides logging.file
//   - JELLYCAT_SERVE_ADDR: overrides server.addr
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// =============================================================================
// COPY / DISPLAY
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if cfg == nil {
			// Don't fail; use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
