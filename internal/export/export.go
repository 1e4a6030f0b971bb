// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/util"
)

// ErrUnknownFormat is returned by ForFormat for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Generator is written into exported documents.
const Generator = "dsamentor"

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv model.Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".yaml").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata includes the frontmatter and session header.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Now stamps the export. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
		Now:               time.Now,
	}
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// =============================================================================
// FORMAT REGISTRY
// =============================================================================

var formats = map[string]func(*Options) Exporter{
	"markdown": func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"md":       func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"json":     func(o *Options) Exporter { return NewJSONExporter(o) },
	"yaml":     func(o *Options) Exporter { return NewYAMLExporter(o) },
	"yml":      func(o *Options) Exporter { return NewYAMLExporter(o) },
	"html":     func(o *Options) Exporter { return NewHTMLExporter(o) },
}

// Formats lists the canonical export format names.
func Formats() []string {
	return []string{"markdown", "json", "yaml", "html"}
}

// ForFormat returns the exporter registered under name (case-insensitive).
func ForFormat(name string, opts *Options) (Exporter, error) {
	ctor, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		known := make([]string, 0, len(formats))
		for k := range formats {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownFormat, name, strings.Join(known, ", "))
	}
	return ctor(opts), nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a conversation to a file using the specified exporter.
// Returns the output file path or an error.
func ExportToFile(conv model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := Filename(conv, exporter, opts.now())
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// Filename returns the file name ExportToFile would use for conv.
func Filename(conv model.Conversation, exporter Exporter, now time.Time) string {
	return fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title),
		now.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}

	return string(result)
}

// validate rejects conversations that cannot produce a meaningful document.
func validate(conv model.Conversation) error {
	if conv.ID == "" {
		return errors.New("conversation has no id")
	}
	if len(conv.Messages) == 0 {
		return errors.New("conversation has no messages")
	}
	return nil
}

// problemURLs lists the distinct problem URLs submitted in conv, in order.
func problemURLs(conv model.Conversation) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, msg := range conv.Messages {
		if msg.Sender != model.SenderUser {
			continue
		}
		if u, _ := model.ParseUserText(msg.Text); u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
