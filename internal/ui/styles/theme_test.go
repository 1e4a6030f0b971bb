// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestPick(t *testing.T) {
	c := lipgloss.AdaptiveColor{Light: "#111111", Dark: "#EEEEEE"}
	if got := Pick(c, true); got != lipgloss.Color("#EEEEEE") {
		t.Errorf("Pick(dark) = %q", got)
	}
	if got := Pick(c, false); got != lipgloss.Color("#111111") {
		t.Errorf("Pick(light) = %q", got)
	}
}

func TestSetDarkRebuildsStyles(t *testing.T) {
	theme := NewTheme(true)
	if theme.HeaderTitle.GetForeground() != Pick(Purple, true) {
		t.Fatal("dark theme should use the dark purple")
	}

	theme.SetDark(false)
	if theme.IsDark {
		t.Fatal("SetDark(false) left IsDark set")
	}
	if theme.HeaderTitle.GetForeground() != Pick(Purple, false) {
		t.Error("light theme should use the light purple")
	}
	if theme.Indicator() != "[Light]" {
		t.Errorf("Indicator() = %q", theme.Indicator())
	}
}

func TestGlamourStyle(t *testing.T) {
	theme := NewTheme(true)
	theme.ColorProfile = termenv.TrueColor
	if got := theme.GlamourStyle(); got != "dark" {
		t.Errorf("dark GlamourStyle() = %q", got)
	}
	theme.SetDark(false)
	if got := theme.GlamourStyle(); got != "light" {
		t.Errorf("light GlamourStyle() = %q", got)
	}
	theme.ColorProfile = termenv.Ascii
	if got := theme.GlamourStyle(); got != "notty" {
		t.Errorf("ascii GlamourStyle() = %q", got)
	}
}

func TestLayoutMode(t *testing.T) {
	tests := []struct {
		width   int
		mode    LayoutMode
		sidebar int
	}{
		{40, LayoutNarrow, 40},
		{80, LayoutMedium, 28},
		{120, LayoutWide, 34},
	}
	theme := NewTheme(true)
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.GetLayoutMode(); got != tt.mode {
			t.Errorf("width %d: mode = %v, want %v", tt.width, got, tt.mode)
		}
		if got := theme.SidebarWidth(); got != tt.sidebar {
			t.Errorf("width %d: sidebar = %d, want %d", tt.width, got, tt.sidebar)
		}
	}
}
