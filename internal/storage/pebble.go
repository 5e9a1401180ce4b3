// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleBackend stores records in an embedded Pebble database.
// Pebble panics on use after Close, so every call checks closed first.
type PebbleBackend struct {
	db     *pebble.DB
	mu     sync.RWMutex
	closed bool
}

// NewPebbleBackend opens (or creates) a Pebble database in dir.
func NewPebbleBackend(dir string) (*PebbleBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("pebble storage: empty directory")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

// Get reads the value stored under key.
func (b *PebbleBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	v, closer, err := b.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer closer.Close()

	// v is only valid until closer is closed
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes value under key and syncs it to disk.
func (b *PebbleBackend) Set(key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if err := b.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *PebbleBackend) Delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if err := b.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (b *PebbleBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
