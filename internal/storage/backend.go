// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a durable key-value store.
//
// Get returns ErrNotFound for missing keys. Delete of a missing key is not
// an error. Implementations are safe for concurrent use.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Driver names a Backend implementation.
type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverPebble Driver = "pebble"
	DriverMemory Driver = "memory"
)

// Drivers lists every supported driver.
var Drivers = []Driver{DriverFile, DriverSQLite, DriverPebble, DriverMemory}

// ParseDriver validates a driver name.
func ParseDriver(name string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Drivers {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown storage driver %q", name)
}

// Open creates the backend for driver rooted at path. The memory driver
// ignores path.
func Open(driver Driver, path string) (Backend, error) {
	switch driver {
	case DriverFile:
		return NewFileBackend(path)
	case DriverSQLite:
		return NewSQLiteBackend(path)
	case DriverPebble:
		return NewPebbleBackend(path)
	case DriverMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "key not found"}

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = &StorageError{Message: "storage closed"}

// StorageError represents a storage-level error.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
