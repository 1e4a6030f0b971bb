// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the application logger.
//
// The TUI owns the terminal, so logs normally go to a file under the data
// directory. Timestamps carry millisecond precision.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// TimestampFormat adds millisecond precision to log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.999Z07:00"

// Options configures New.
type Options struct {
	// Level is a logrus level name (trace, debug, info, warn, error).
	Level string

	// File receives the log. Empty means Output.
	File string

	// Output is used when File is empty (default os.Stderr).
	Output io.Writer
}

// NewFormatter returns the text formatter used everywhere.
func NewFormatter(colors bool) *log.TextFormatter {
	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = TimestampFormat
	formatter.FullTimestamp = true
	formatter.DisableColors = !colors
	return formatter
}

// New creates a logger. The returned closer releases the log file and is
// never nil.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("cannot parse log-level: %w", err)
	}

	logger := log.New()
	logger.SetLevel(level)

	if opts.File == "" {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		logger.SetOutput(out)
		logger.SetFormatter(NewFormatter(false))
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, nopCloser{}, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	logger.SetFormatter(NewFormatter(false))
	logger.WithField("level", level.String()).Debug("debug logging enabled")
	return logger, f, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.PanicLevel)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
