// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the external chat service.
//
// The service accepts POST {base}/chat with {"question": "..."} and replies
// with {"answer": "..."}. Any other outcome (transport failure, non-2xx
// status, undecodable body, missing or empty answer) is reported as a
// *ClientError so callers can substitute a fallback reply.
//
// # Key Types
//
//   - Client: Thread-safe, rate-limited chat client
//   - ClientConfig: Base URL resolver, timeout, attempts and rate limit
//   - ClientError: Categorized failure with an unwrappable cause
//
// # Usage
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: func() string { return config.Global().Backend.ClientURL },
//	})
//	answer, err := client.Ask(ctx, "Hello")
//	if backend.IsTimeout(err) {
//	    ...
//	}
package backend
