// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderBrand    lipgloss.Style
	HeaderTitle    lipgloss.Style
	ThemeIndicator lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// BANNER STYLES
	// ==========================================================================

	ErrorBanner lipgloss.Style
	ErrorTitle  lipgloss.Style
	ErrorHint   lipgloss.Style
	Notice      lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarSection  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarActive   lipgloss.Style
	SidebarMeta     lipgloss.Style
	BookmarkMark    lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemMessage  lipgloss.Style
	Timestamp      lipgloss.Style
	StreamCursor   lipgloss.Style
	WelcomeTitle   lipgloss.Style
	WelcomeBody    lipgloss.Style

	// ==========================================================================
	// INPUT STYLES
	// ==========================================================================

	InputLabel   lipgloss.Style
	InputFocused lipgloss.Style
	InputBlurred lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// DetectDarkBackground reports whether the terminal background looks dark.
// Used as the initial preference before the user picks one.
func DetectDarkBackground() bool {
	return termenv.HasDarkBackground()
}

// NewTheme creates a theme for the given dark/light preference.
func NewTheme(dark bool) *Theme {
	t := &Theme{
		IsDark:       dark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// SetDark switches the palette and rebuilds every style.
func (t *Theme) SetDark(dark bool) {
	if t.IsDark == dark {
		return
	}
	t.IsDark = dark
	t.initStyles()
}

// Indicator is the header label for the current theme.
func (t *Theme) Indicator() string {
	if t.IsDark {
		return "[Dark]"
	}
	return "[Light]"
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) c(ac lipgloss.AdaptiveColor) lipgloss.Color {
	return Pick(ac, t.IsDark)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(t.c(SurfaceDim)).
		Foreground(t.c(TextPrimary)).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Cyan))

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Purple))

	t.ThemeIndicator = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary))

	t.Spinner = lipgloss.NewStyle().
		Foreground(t.c(Purple))

	// Banners
	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(t.c(Rose)).
		Background(t.c(RoseDeep)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.c(Rose)).
		BorderLeft(true).
		Padding(0, 1)

	t.ErrorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Rose))

	t.ErrorHint = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary)).
		Italic(true)

	t.Notice = lipgloss.NewStyle().
		Foreground(t.c(Amber)).
		Padding(0, 1)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.c(Overlay)).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(t.c(Cyan))

	t.SidebarSection = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(TextSecondary)).
		MarginTop(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(t.c(TextPrimary))

	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(t.c(TextPrimary)).
		Background(t.c(SelectionBg)).
		Bold(true)

	t.SidebarActive = lipgloss.NewStyle().
		Foreground(t.c(Cyan))

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(t.c(TextMuted))

	t.BookmarkMark = lipgloss.NewStyle().
		Foreground(t.c(Emerald))

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Cyan))

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Purple))

	t.SystemMessage = lipgloss.NewStyle().
		Foreground(t.c(Amber)).
		Italic(true).
		PaddingLeft(2)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(t.c(TextMuted))

	t.StreamCursor = lipgloss.NewStyle().
		Foreground(t.c(Purple)).
		Bold(true)

	t.WelcomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Purple)).
		MarginBottom(1)

	t.WelcomeBody = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary))

	// Inputs
	t.InputLabel = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary)).
		Bold(true)

	t.InputFocused = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.c(Cyan)).
		Padding(0, 1)

	t.InputBlurred = t.InputFocused.
		BorderForeground(t.c(Overlay))

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(t.c(SurfaceDim)).
		Foreground(t.c(TextSecondary)).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(t.c(Cyan)).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(t.c(TextMuted))
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar overlays the thread
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)

// SidebarWidth is the sidebar column count for the layout mode.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return t.Width
	case LayoutMedium:
		return 28
	default:
		return 34
	}
}
