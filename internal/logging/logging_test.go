// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dsamentor.log")
	logger, closer, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.WithField("conversation", "abc").Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "conversation=abc") || !strings.Contains(string(data), "msg=hello") {
		t.Errorf("unexpected log output: %s", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("log file permissions = %o", info.Mode().Perm())
	}
}

func TestNew_Output(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("level filtering failed: %q", buf.String())
	}
	if logger.GetLevel() != log.WarnLevel {
		t.Errorf("level = %v", logger.GetLevel())
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, closer, err := New(Options{Level: "chatty"})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if closer == nil {
		t.Fatal("closer must never be nil")
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(true)
	if !f.FullTimestamp || f.TimestampFormat != TimestampFormat || f.DisableColors {
		t.Errorf("formatter = %+v", f)
	}
}
