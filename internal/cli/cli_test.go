// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// isolate points HOME at a temp dir and clears the environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"DSAMENTOR_API_KEY", "GEMINI_API_KEY", "DSAMENTOR_PROVIDER", "DSAMENTOR_MODEL",
		"DSAMENTOR_BASE_URL", "DSAMENTOR_DATA_DIR", "DSAMENTOR_STORAGE",
		"DSAMENTOR_PLAYBACK", "DSAMENTOR_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func conv(id, title string, updated time.Time, texts ...string) model.Conversation {
	c := model.NewConversation(id, updated)
	c.Title = title
	for _, text := range texts {
		c.AddMessage(model.NewUserMessage(text, updated))
	}
	return c
}

// seed writes conversations and bookmarks into a file store under dataDir.
func seed(t *testing.T, dataDir string, convs []model.Conversation, bookmarks ...model.Conversation) {
	t.Helper()
	store, err := storage.Open(storage.BackendFile, dataDir)
	require.NoError(t, err)
	defer store.Close()

	records := storage.NewRecords(store, nil)
	require.NoError(t, records.SaveConversations(convs))
	if len(bookmarks) > 0 {
		require.NoError(t, records.SaveBookmarks(bookmarks))
	}
}

func storeFlags(dataDir string) []string {
	return []string{"--data-dir", dataDir, "--storage", "file"}
}

// =============================================================================
// VERSION
// =============================================================================

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "version", "-o", "short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = runCLI(t, "version", "-o", "json")
	require.NoError(t, err)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	out, err = runCLI(t, "version", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "version: "+Version)

	_, err = runCLI(t, "version", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInitSetGet(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = runCLI(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = runCLI(t, "config", "set", "api.model", "gemini-2.0-flash", "--config", path)
	require.NoError(t, err)
	out, err = runCLI(t, "config", "get", "api.model", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash\n", out)

	out, err = runCLI(t, "config", "set", "api.api_key", "sk-secret", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	out, err = runCLI(t, "config", "get", "api.api_key", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, redacted+"\n", out)

	out, err = runCLI(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "gemini-2.0-flash")

	_, err = runCLI(t, "config", "set", "api.timeout_secs", "9999", "--config", path)
	assert.ErrorContains(t, err, "api.timeout_secs")
	_, err = runCLI(t, "config", "set", "api.nope", "x", "--config", path)
	assert.Error(t, err)

	out, err = runCLI(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestFlagsOverrideConfig(t *testing.T) {
	isolate(t)
	f := NewGlobalFlags()
	f.DataDir = "/tmp/somewhere"
	f.Storage = "SQLite"
	f.LogLevel = "debug"

	cfg, err := f.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/somewhere", cfg.Storage.DataDir)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)

	f.Storage = "postgres"
	_, err = f.LoadConfig()
	assert.ErrorContains(t, err, "storage.backend")
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryCommands(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	now := time.Now().Truncate(time.Millisecond)

	older := conv("0190aaaa-0000-7000-8000-000000000001", "Two Sum: why a hash map?", now.Add(-2*time.Hour),
		model.UserText("https://leetcode.com/problems/two-sum/", "why a hash map?"))
	newer := conv("0190bbbb-0000-7000-8000-000000000002", "Monotonic stacks", now.Add(-time.Hour),
		"when do I use a monotonic stack?")
	seed(t, dataDir, []model.Conversation{older, newer}, older)

	out, err := runCLI(t, append([]string{"history", "list"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Monotonic stacks")
	assert.Contains(t, lines[1], "* 0190aaaa")

	out, err = runCLI(t, append([]string{"history", "list", "--json"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	var entries []historyEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)
	assert.True(t, entries[1].Bookmarked)
	assert.Equal(t, 1, entries[1].Messages)

	out, err = runCLI(t, append([]string{"history", "show", "0190aa", "--raw"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "## Conversation")
	assert.Contains(t, out, "**Problem**: <https://leetcode.com/problems/two-sum/>")

	exportDir := t.TempDir()
	out, err = runCLI(t, append([]string{"history", "export", "2", "--format", "json", "-o", exportDir}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, exportDir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported model.Conversation
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, older.ID, exported.ID)

	allDir := t.TempDir()
	_, err = runCLI(t, append([]string{"history", "export", "--all", "--format", "yaml", "-o", allDir}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(allDir, "*.yaml"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = runCLI(t, append([]string{"history", "export", "1", "--format", "pdf"}, storeFlags(dataDir)...)...)
	assert.ErrorContains(t, err, "pdf")

	out, err = runCLI(t, append([]string{"history", "delete", older.ID}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	out, err = runCLI(t, append([]string{"history", "list", "--json"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	entries = nil
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, newer.ID, entries[0].ID)

	_, err = runCLI(t, append([]string{"history", "show", "9"}, storeFlags(dataDir)...)...)
	assert.ErrorContains(t, err, "no conversation at row 9")
}

func TestHistoryRenameAndKeep(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	now := time.Now()

	old := conv("0190cccc-0000-7000-8000-000000000003", "Graphs", now.Add(-conversation.RetentionPeriod+time.Hour), "what is BFS?")
	seed(t, dataDir, []model.Conversation{old})

	out, err := runCLI(t, append([]string{"history", "rename", "1", "Breadth", "first", "search"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed "Graphs" to "Breadth first search"`)

	out, err = runCLI(t, append([]string{"history", "keep", "0190cccc"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Kept "Breadth first search"`)

	out, err = runCLI(t, append([]string{"history", "list", "--json"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	var entries []historyEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Breadth first search", entries[0].Title)
	assert.WithinDuration(t, time.Now(), entries[0].Updated, time.Minute)

	_, err = runCLI(t, append([]string{"history", "rename", "1"}, storeFlags(dataDir)...)...)
	assert.Error(t, err)
}

func TestHistoryPrune(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	now := time.Now()

	stale := conv("stale", "Old", now.Add(-conversation.RetentionPeriod-time.Hour), "hello")
	fresh := conv("fresh", "New", now.Add(-time.Minute), "hello")
	seed(t, dataDir, []model.Conversation{stale, fresh})

	out, err := runCLI(t, append([]string{"history", "prune"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 conversation(s)")

	out, err = runCLI(t, append([]string{"history", "prune"}, storeFlags(dataDir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 conversation(s)")
}

func TestResolveConversation(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(storage.BackendFile, dir)
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()
	records := storage.NewRecords(store, nil)
	require.NoError(t, records.SaveConversations([]model.Conversation{
		conv("abc1", "First", now.Add(-2*time.Minute)),
		conv("abc2", "Second", now.Add(-time.Minute)),
		conv("xyz9", "Third", now),
	}))
	repo := conversation.New(records, conversation.Options{})
	repo.LoadAll()

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{ref: "1", want: "xyz9"},
		{ref: "3", want: "abc1"},
		{ref: "abc2", want: "abc2"},
		{ref: "xy", want: "xyz9"},
		{ref: "abc", wantErr: "matches 2 conversations"},
		{ref: "0", wantErr: "no conversation at row 0"},
		{ref: "nope", wantErr: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveConversation(repo, tt.ref)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
