// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SyDuc7421/chatbot-gui/internal/util"
)

// DefaultBackendURL is the chat service base URL used when none is set.
const DefaultBackendURL = "http://localhost:8080/api/v1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatbot configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend" yaml:"backend"`
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`
	Store   StoreConfig   `toml:"store" json:"store" yaml:"store"`
	Log     LogConfig     `toml:"log" json:"log" yaml:"log"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// BackendConfig configures the external chat service.
type BackendConfig struct {
	// ServerURL is the server-side base URL (BACKEND_URL).
	ServerURL string `toml:"server_url" json:"server_url" yaml:"server_url"`

	// ClientURL is the client-side base URL (NEXT_PUBLIC_BACKEND_URL).
	// Takes precedence over ServerURL when set.
	ClientURL string `toml:"client_url" json:"client_url" yaml:"client_url"`

	// TimeoutSecs bounds a single request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`

	// Attempts is the number of tries per send (at least 1).
	Attempts int `toml:"attempts" json:"attempts" yaml:"attempts"`

	// RatePerSec limits request starts. Zero disables limiting.
	RatePerSec float64 `toml:"rate_per_sec" json:"rate_per_sec" yaml:"rate_per_sec"`

	// Burst is the rate limiter bucket size.
	Burst int `toml:"burst" json:"burst" yaml:"burst"`
}

// ChatBaseURL returns the base URL sends should use.
func (b BackendConfig) ChatBaseURL() string {
	if u := strings.TrimSpace(b.ClientURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(b.ServerURL); u != "" {
		return u
	}
	return DefaultBackendURL
}

// Timeout returns TimeoutSecs as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	// Driver is one of file, sqlite, pebble, memory.
	Driver string `toml:"driver" json:"driver" yaml:"driver"`

	// Path is the directory (file, pebble) or database file (sqlite).
	// Empty means a location under the config directory.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// ResolvedPath returns Path, or the default location for Driver.
func (s StorageConfig) ResolvedPath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	switch s.Driver {
	case "sqlite":
		return filepath.Join(dir, "chatbot.db"), nil
	case "pebble":
		return filepath.Join(dir, "pebble"), nil
	default:
		return filepath.Join(dir, "data"), nil
	}
}

// StoreConfig holds conversation store defaults.
type StoreConfig struct {
	// DefaultFolder is assigned to new conversations. Empty leaves them unfiled.
	DefaultFolder string `toml:"default_folder" json:"default_folder" yaml:"default_folder"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level       string `toml:"level" json:"level" yaml:"level"`
	File        string `toml:"file" json:"file" yaml:"file"`
	Development bool   `toml:"development" json:"development" yaml:"development"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" json:"addr" yaml:"addr"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			ServerURL:   DefaultBackendURL,
			TimeoutSecs: 60,
			Attempts:    1,
			Burst:       1,
		},
		Storage: StorageConfig{
			Driver: "file",
		},
		Store: StoreConfig{
			DefaultFolder: "Work Projects",
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatbot configuration directory path.
// CHATBOT_CONFIG_DIR overrides the default ~/.chatbot.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CHATBOT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatbot"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML, then JSON, then YAML, and falls back to defaults.
// .env files and environment overrides are applied last.
func Load() (*Config, error) {
	loadDotEnv()

	var loadErr error
	candidates := []func() (string, error){ConfigPathTOML, ConfigPathJSON, ConfigPathYAML}
	for _, pathFn := range candidates {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := loadFile(cfg, path); err != nil {
			loadErr = err
			continue
		}
		return finish(cfg)
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file with full validation.
// The format is chosen by extension; anything unrecognized is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file into cfg.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return nil
}

// finish applies environment overrides, fills defaults and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the environment win.
func loadDotEnv() {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	// Backend
	if cfg.Backend.TimeoutSecs <= 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.Attempts <= 0 {
		cfg.Backend.Attempts = defaults.Backend.Attempts
	}
	if cfg.Backend.Burst <= 0 {
		cfg.Backend.Burst = defaults.Backend.Burst
	}

	// Storage
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaults.Storage.Driver
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Metrics
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = defaults.Metrics.Addr
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# chatbot configuration file\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML saves the configuration to a YAML file.
func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
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

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	urls := []struct{ field, raw string }{
		{"backend.server_url", c.Backend.ServerURL},
		{"backend.client_url", c.Backend.ClientURL},
	}
	for _, entry := range urls {
		field, raw := entry.field, entry.raw
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", raw),
			})
		}
	}

	if c.Backend.TimeoutSecs < 0 || c.Backend.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("timeout %d out of range, must be 1-3600", c.Backend.TimeoutSecs),
		})
	}
	if c.Backend.Attempts < 0 || c.Backend.Attempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "backend.attempts",
			Message: fmt.Sprintf("attempts %d out of range, must be 1-10", c.Backend.Attempts),
		})
	}
	if c.Backend.RatePerSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.rate_per_sec",
			Message: "must not be negative",
		})
	}

	validDrivers := map[string]bool{"file": true, "sqlite": true, "pebble": true, "memory": true}
	if c.Storage.Driver != "" && !validDrivers[strings.ToLower(c.Storage.Driver)] {
		errs = append(errs, ValidationError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver '%s', must be one of: file, sqlite, pebble, memory", c.Storage.Driver),
		})
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - BACKEND_URL: overrides backend.server_url
//   - NEXT_PUBLIC_BACKEND_URL: overrides backend.client_url
//   - CHATBOT_BACKEND_ATTEMPTS: overrides backend.attempts
//   - CHATBOT_STORAGE_DRIVER: overrides storage.driver
//   - CHATBOT_STORAGE_PATH: overrides storage.path
//   - CHATBOT_LOG_LEVEL: overrides log.level
//   - CHATBOT_LOG_FILE: overrides log.file
//   - CHATBOT_METRICS: enables the metrics endpoint
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.ServerURL = v
	}
	if v := os.Getenv("NEXT_PUBLIC_BACKEND_URL"); v != "" {
		c.Backend.ClientURL = v
	}
	if v := os.Getenv("CHATBOT_BACKEND_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.Attempts = n
		}
	}
	if v := os.Getenv("CHATBOT_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("CHATBOT_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("CHATBOT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHATBOT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("CHATBOT_METRICS"); v != "" {
		c.Metrics.Enabled = v == "1" || strings.ToLower(v) == "true"
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
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
			cfg = Default()
		}
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
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
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
