// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat state to a durable local key-value store.
//
// Four records are kept: conversations, templates, folders and the selected
// conversation ID. The Adapter never surfaces storage failures to callers:
// unreadable records load as empty defaults and failed writes are logged.
//
// # Key Types
//
//   - Backend: Minimal key-value interface implemented by every driver
//   - Adapter: Typed, failure-tolerant access to the four records
//   - Snapshot: All four records loaded together at startup
//
// # Drivers
//
//   - file: One JSON file per key, written atomically
//   - sqlite: Single kv table in a WAL-mode SQLite database
//   - pebble: Embedded Pebble LSM store
//   - memory: In-process cache, lost on exit
//
// # Usage
//
//	backend, err := storage.Open(storage.DriverFile, dir)
//	adapter := storage.NewAdapter(backend)
//	snap := adapter.LoadAll()
//	adapter.SaveFolders(snap.Folders)
package storage
