// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps records in process memory. Used by tests and by
// ephemeral sessions that should leave nothing on disk.
type MemoryBackend struct {
	cache  *cache.Cache
	mu     sync.RWMutex
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend. Entries never expire.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cache: cache.New(cache.NoExpiration, 0)}
}

// Get returns a copy of the value stored under key.
func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	v, found := b.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	return cloneBytes(v.([]byte)), nil
}

// Set stores a copy of value under key.
func (b *MemoryBackend) Set(key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	b.cache.Set(key, cloneBytes(value), cache.NoExpiration)
	return nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	b.cache.Delete(key)
	return nil
}

// Close drops every entry. Later calls return ErrClosed.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cache.Flush()
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
