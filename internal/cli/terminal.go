// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jeranaias/dsamentor/internal/ui/styles"
)

const defaultTerminalWidth = 80

// =============================================================================
// OUTPUT STYLES
// =============================================================================

var (
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	dimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	mentorStyle  = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or defaultTerminalWidth when w is
// not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// renderMarkdown renders text with glamour when w is a terminal and returns
// it unchanged otherwise.
func renderMarkdown(w io.Writer, text string) string {
	if !isTerminal(w) {
		return text
	}
	style := "light"
	if styles.DetectDarkBackground() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(terminalWidth(w)-4),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
