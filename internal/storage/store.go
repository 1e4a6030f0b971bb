// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for dsamentor.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a string-keyed byte store. Writes replace the whole value; there
// are no partial updates and the last writer wins.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put replaces the value for key.
	Put(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases the underlying resources.
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	// BackendBolt stores records in a single bbolt database file.
	BackendBolt Backend = "bolt"

	// BackendFile stores one JSON file per record.
	BackendFile Backend = "file"

	// BackendSQLite stores records in a SQLite table.
	BackendSQLite Backend = "sqlite"
)

// Backends lists the supported backends.
var Backends = []Backend{BackendBolt, BackendFile, BackendSQLite}

// ParseBackend converts a config value into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendBolt, BackendFile, BackendSQLite:
		return b, nil
	case "":
		return BackendBolt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Open opens the store for backend rooted at dataDir.
func Open(backend Backend, dataDir string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch backend {
	case BackendBolt, "":
		store, err = OpenBolt(filepath.Join(dataDir, "dsamentor.db"))
	case BackendFile:
		store, err = OpenFile(filepath.Join(dataDir, "records"))
	case BackendSQLite:
		store, err = OpenSQLite(filepath.Join(dataDir, "dsamentor.sqlite"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a record doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &RecordError{Message: "record not found"}

// ErrUnknownBackend is returned for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// RecordError represents a record-level storage error.
type RecordError struct {
	Message string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing record errors.
func (e *RecordError) Is(target error) bool {
	t, ok := target.(*RecordError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
