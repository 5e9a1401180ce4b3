// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a fresh temp dir and clears the
// environment overrides so the host machine can't leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHATBOT_CONFIG_DIR", dir)
	for _, key := range []string{
		"BACKEND_URL", "NEXT_PUBLIC_BACKEND_URL", "CHATBOT_BACKEND_ATTEMPTS",
		"CHATBOT_STORAGE_DRIVER", "CHATBOT_STORAGE_PATH",
		"CHATBOT_LOG_LEVEL", "CHATBOT_LOG_FILE", "CHATBOT_METRICS",
	} {
		t.Setenv(key, "")
	}
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c := Default()
			c.Backend.ClientURL = "http://writer.example"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.ChatBaseURL())
	assert.Equal(t, "file", cfg.Storage.Driver)
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	_ = Global()

	custom := Default()
	custom.Backend.ClientURL = "http://custom.example"
	SetGlobal(custom)

	assert.Equal(t, "http://custom.example", Global().Backend.ChatBaseURL())
}

func TestConfig_SetGlobalBeforeFirstAccess(t *testing.T) {
	isolate(t)

	custom := Default()
	custom.Store.DefaultFolder = "Inbox"
	SetGlobal(custom)

	assert.Equal(t, "Inbox", Global().Store.DefaultFolder, "lazy load must not clobber SetGlobal")
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Backend.Attempts)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "Work Projects", cfg.Store.DefaultFolder)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestConfig_ChatBaseURLPrecedence(t *testing.T) {
	b := BackendConfig{}
	assert.Equal(t, DefaultBackendURL, b.ChatBaseURL())

	b.ServerURL = "http://server.example"
	assert.Equal(t, "http://server.example", b.ChatBaseURL())

	b.ClientURL = " http://client.example "
	assert.Equal(t, "http://client.example", b.ChatBaseURL())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Backend.ServerURL = "ftp://x" }, "backend.server_url"},
		{"relative url", func(c *Config) { c.Backend.ClientURL = "/api" }, "backend.client_url"},
		{"attempts", func(c *Config) { c.Backend.Attempts = 99 }, "backend.attempts"},
		{"timeout", func(c *Config) { c.Backend.TimeoutSecs = 7200 }, "backend.timeout_secs"},
		{"rate", func(c *Config) { c.Backend.RatePerSec = -1 }, "backend.rate_per_sec"},
		{"driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestLoad_FormatsAndPrecedence(t *testing.T) {
	dir := isolate(t)

	// YAML alone is picked up
	writeFile(t, filepath.Join(dir, "config.yaml"), "backend:\n  client_url: http://yaml.example\n")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://yaml.example", cfg.Backend.ClientURL)

	// JSON beats YAML
	writeFile(t, filepath.Join(dir, "config.json"), `{"backend":{"client_url":"http://json.example"}}`)
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "http://json.example", cfg.Backend.ClientURL)

	// TOML beats JSON
	writeFile(t, filepath.Join(dir, "config.toml"), "[backend]\nclient_url = \"http://toml.example\"\nattempts = 3\n\n[storage]\ndriver = \"SQLite\"\n")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "http://toml.example", cfg.Backend.ClientURL)
	assert.Equal(t, 3, cfg.Backend.Attempts)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.ServerURL, "unset fields keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[backend]\nserver_url = \"http://file.example\"\n")

	t.Setenv("BACKEND_URL", "http://env-server.example")
	t.Setenv("NEXT_PUBLIC_BACKEND_URL", "http://env-client.example")
	t.Setenv("CHATBOT_STORAGE_DRIVER", "memory")
	t.Setenv("CHATBOT_LOG_LEVEL", "debug")
	t.Setenv("CHATBOT_METRICS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env-server.example", cfg.Backend.ServerURL)
	assert.Equal(t, "http://env-client.example", cfg.Backend.ChatBaseURL())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "NEXT_PUBLIC_BACKEND_URL=http://dotenv.example\n")
	// godotenv sets real environment variables; drop ours first so it can.
	require.NoError(t, os.Unsetenv("NEXT_PUBLIC_BACKEND_URL"))
	t.Cleanup(func() { _ = os.Unsetenv("NEXT_PUBLIC_BACKEND_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.example", cfg.Backend.ChatBaseURL())
}

func TestLoad_MalformedFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[backend\nbroken")

	cfg, err := Load()
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.ChatBaseURL())
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yml")
	writeFile(t, path, "storage:\n  driver: floppy\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestSave_RoundTrip(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Backend.ClientURL = "http://saved.example"
	cfg.Backend.RatePerSec = 2.5
	cfg.Log.File = "/tmp/chatbot.log"

	dir := t.TempDir()
	savers := map[string]func(*Config, string) error{
		"config.toml": SaveTOML,
		"config.json": SaveJSON,
		"config.yaml": SaveYAML,
	}
	for name, save := range savers {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, save(cfg, path))

			loaded, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestSave_DefaultLocation(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, Save(Default()))
	_, err := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

func TestStorageConfig_ResolvedPath(t *testing.T) {
	dir := isolate(t)

	tests := map[string]string{
		"file":   filepath.Join(dir, "data"),
		"sqlite": filepath.Join(dir, "chatbot.db"),
		"pebble": filepath.Join(dir, "pebble"),
	}
	for driver, want := range tests {
		got, err := StorageConfig{Driver: driver}.ResolvedPath()
		require.NoError(t, err)
		assert.Equal(t, want, got, driver)
	}

	got, err := StorageConfig{Driver: "sqlite", Path: "/explicit.db"}.ResolvedPath()
	require.NoError(t, err)
	assert.Equal(t, "/explicit.db", got)
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Backend.ClientURL = "http://changed.example"
	assert.Empty(t, cfg.Backend.ClientURL)
	assert.Contains(t, cfg.String(), `"server_url"`)
}
