// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/dsamentor/internal/model"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports conversations as a YAML document. Like JSON it always
// carries every message with its timestamp; IncludeMetadata adds a header.
type YAMLExporter struct {
	options *Options
}

// yamlDocument wraps the conversation with export metadata.
type yamlDocument struct {
	Generator string             `yaml:"generator,omitempty"`
	Exported  string             `yaml:"exported,omitempty"`
	Problems  []string           `yaml:"problems,omitempty"`
	Chat      model.Conversation `yaml:"conversation"`
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts a conversation to YAML.
func (e *YAMLExporter) Export(conv model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	doc := yamlDocument{Chat: conv}
	if e.options.IncludeMetadata {
		doc.Generator = Generator
		doc.Exported = e.options.now().Format(time.RFC3339)
		doc.Problems = problemURLs(conv)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
