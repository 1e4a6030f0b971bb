// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the dsamentor TUI.

# Color System (colors.go)

Every palette entry is a lipgloss.AdaptiveColor with a light and a dark
variant. The dark/light choice is a persisted user preference, so the theme
resolves colors with Pick instead of letting lipgloss probe the terminal.

# Theme (theme.go)

	theme := styles.NewTheme(styles.DetectDarkBackground())
	theme.SetSize(width, height)
	header := theme.HeaderTitle.Render(title)

	theme.SetDark(false)          // rebuild for light mode
	style := theme.GlamourStyle() // "dark", "light" or "notty"

# Layout Modes

	LayoutNarrow - < 60 columns, the sidebar replaces the thread when open
	LayoutMedium - 60-100 columns
	LayoutWide   - >= 100 columns
*/
package styles
