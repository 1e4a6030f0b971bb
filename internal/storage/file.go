// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jeranaias/dsamentor/internal/util"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps each record in its own JSON file under BaseDir.
type FileStore struct {
	// BaseDir is the directory holding the record files.
	// Default: ~/.dsamentor/records/
	BaseDir string
}

// OpenFile creates the directory if needed and returns a store rooted there.
func OpenFile(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	return &FileStore{BaseDir: baseDir}, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.filePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put implements Store.
func (s *FileStore) Put(key string, value []byte) error {
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, value, 0o600)
}

// Delete implements Store.
func (s *FileStore) Delete(key string) error {
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// filePath returns the file path for key, rejecting keys that could escape
// BaseDir.
func (s *FileStore) filePath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid record key %q", key)
	}
	return filepath.Join(s.BaseDir, key+".json"), nil
}
