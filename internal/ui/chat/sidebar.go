// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/util"
)

// sidebarRow is one selectable entry: a bookmark snapshot or a conversation.
type sidebarRow struct {
	conv     model.Conversation
	bookmark bool
}

// sidebarRows lists bookmarks first, then every conversation by recency.
func (m Model) sidebarRows() []sidebarRow {
	rows := make([]sidebarRow, 0, len(m.snap.Bookmarks)+len(m.snap.Conversations))
	for _, b := range m.snap.Bookmarks {
		rows = append(rows, sidebarRow{conv: b, bookmark: true})
	}
	for _, c := range m.snap.Conversations {
		rows = append(rows, sidebarRow{conv: c})
	}
	return rows
}

func (m Model) renderSidebar(width, height int) string {
	style := m.theme.Sidebar
	if m.focus == focusSidebar {
		style = m.theme.SidebarFocused
	}
	inner := width - style.GetHorizontalFrameSize()
	if inner < 8 {
		inner = 8
	}

	rows := m.sidebarRows()
	now := m.now()
	var lines []string

	section := func(title string) {
		lines = append(lines, m.theme.SidebarSection.Render(title))
	}

	if len(m.snap.Bookmarks) > 0 {
		section(fmt.Sprintf("Bookmarks (%d/%d)", len(m.snap.Bookmarks), conversation.MaxBookmarks))
	}
	for i, row := range rows {
		if i == len(m.snap.Bookmarks) {
			section("Conversations")
		}
		lines = append(lines, m.renderSidebarRow(row, i == m.sidebarIndex, inner, now))
	}
	if len(rows) == 0 {
		lines = append(lines, m.theme.SidebarMeta.Render("No conversations yet"))
	}

	content := strings.Join(lines, "\n")
	return style.
		Width(width - style.GetHorizontalBorderSize()).
		Height(max(1, height-style.GetVerticalBorderSize())).
		MaxHeight(height).
		Render(content)
}

func (m Model) renderSidebarRow(row sidebarRow, selected bool, width int, now time.Time) string {
	mark := "  "
	if m.snap.Bookmarked[row.conv.ID] {
		mark = m.theme.BookmarkMark.Render("* ")
	}

	title := util.TruncateWidth(util.SingleLine(row.conv.Title), width-2)
	meta := util.FormatRelative(row.conv.Timestamp, now)
	if n := len(row.conv.Messages); n > 0 {
		if meta != "" {
			meta += " - "
		}
		meta += fmt.Sprintf("%d msgs", n)
	}

	titleStyle := m.theme.SidebarItem
	if !row.bookmark && row.conv.ID == m.snap.Active.ID {
		titleStyle = m.theme.SidebarActive
	}
	if selected {
		titleStyle = m.theme.SidebarSelected
	}

	line := mark + titleStyle.Render(util.PadRight(title, width-2))
	if meta == "" {
		return line
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, "  "+m.theme.SidebarMeta.Render(util.TruncateWidth(meta, width-2)))
}
