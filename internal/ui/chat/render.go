// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// markdownRenderer renders finished replies with glamour and memoizes the
// output per message. The cache is dropped whenever width or style changes.
type markdownRenderer struct {
	style string
	width int
	term  *glamour.TermRenderer
	cache map[string]string
	log   logrus.FieldLogger
}

func newMarkdownRenderer(style string, log logrus.FieldLogger) *markdownRenderer {
	return &markdownRenderer{style: style, cache: make(map[string]string), log: log}
}

// configure sets the style and wrap width, rebuilding the renderer if needed.
func (r *markdownRenderer) configure(style string, width int) {
	if width < 20 {
		width = 20
	}
	if style == r.style && width == r.width && r.term != nil {
		return
	}
	r.style = style
	r.width = width
	r.cache = make(map[string]string)

	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.log.WithError(err).Warn("markdown renderer unavailable, falling back to plain text")
		r.term = nil
		return
	}
	r.term = term
}

// render returns the rendered form of text, keyed by message id.
func (r *markdownRenderer) render(id, text string) string {
	key := id + ":" + strconv.Itoa(len(text))
	if out, ok := r.cache[key]; ok {
		return out
	}
	out := text
	if r.term != nil {
		if rendered, err := r.term.Render(text); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	r.cache[key] = out
	return out
}
