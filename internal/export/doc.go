// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes tutoring conversations to shareable documents.
//
// # Key Types
//
//   - Exporter: format interface (Export, FileExtension, MimeType)
//   - MarkdownExporter, JSONExporter, YAMLExporter, HTMLExporter
//   - Options: output directory, metadata and timestamp switches, theme
//
// # Supported Formats
//
//   - markdown: frontmatter, problem links and one section per message
//   - json: the persisted conversation shape, re-importable
//   - yaml: the conversation plus an export header
//   - html: standalone page with embedded CSS
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(conv, exp, opts)
package export
