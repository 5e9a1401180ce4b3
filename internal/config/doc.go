// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// chatbot.
//
// Supports TOML, JSON and YAML configuration files, .env files, environment
// variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Chat service URLs, timeout, attempts and rate limit
//   - StorageConfig: Persistence driver and location
//   - Watcher: Reloads the global config when files change
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (BACKEND_URL, NEXT_PUBLIC_BACKEND_URL, CHATBOT_*)
//   - .env in the working directory, then in the config directory
//   - ~/.chatbot/config.toml
//   - ~/.chatbot/config.json
//   - ~/.chatbot/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	base := config.Global().Backend.ChatBaseURL()
package config
