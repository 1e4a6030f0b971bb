// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dsamentor/internal/assistant"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/ui/styles"
	"github.com/jeranaias/dsamentor/internal/util"
)

// Brand is the name shown at the left of the header.
const Brand = "DSA Mentor"

const minThreadHeight = 3

// =============================================================================
// VIEW
// =============================================================================

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	inputs := m.renderInputs()
	status := m.renderStatusBar()

	body := m.viewport.View()
	if m.showSidebar {
		if m.theme.GetLayoutMode() == styles.LayoutNarrow {
			body = m.renderSidebar(m.width, m.viewport.Height)
		} else {
			sidebar := m.renderSidebar(m.theme.SidebarWidth(), m.viewport.Height)
			body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputs, status)
}

// layout sizes the inputs and the viewport for the current window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	boxW := m.width - m.theme.InputFocused.GetHorizontalFrameSize()
	if boxW < 10 {
		boxW = 10
	}
	m.urlInput.Width = boxW - 1
	m.langInput.Width = boxW - 1
	m.doubtInput.SetWidth(boxW)
	m.codeInput.SetWidth(boxW)

	height := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderInputs()) - 1
	if height < minThreadHeight {
		height = minThreadHeight
	}

	width := m.width
	if m.showSidebar && m.theme.GetLayoutMode() != styles.LayoutNarrow {
		width -= m.theme.SidebarWidth()
	}
	m.viewport.Width = width
	m.viewport.Height = height
	m.renderer.configure(m.theme.GlamourStyle(), width-4)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render(Brand)
	indicator := m.theme.ThemeIndicator.Render(m.theme.Indicator())

	frame := m.theme.Header.GetHorizontalFrameSize()
	room := m.width - frame - lipgloss.Width(brand) - lipgloss.Width(indicator) - 4
	title := ""
	if room > 3 && m.snap.Active.Title != "" {
		title = m.theme.HeaderTitle.Render(util.TruncateWidth(m.snap.Active.Title, room))
	}

	left := brand
	if title != "" {
		left += "  " + title
	}
	gap := m.width - frame - lipgloss.Width(left) - lipgloss.Width(indicator)
	if gap < 1 {
		gap = 1
	}
	line := m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + indicator)

	parts := []string{line}
	if m.snap.HasError() {
		parts = append(parts, m.renderErrorBanner())
	}
	if m.snap.Notice != "" {
		parts = append(parts, m.theme.Notice.Width(m.width).Render(m.snap.Notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderErrorBanner() string {
	text := m.theme.ErrorTitle.Render("Error details: ") + m.snap.ErrorDetail
	if m.snap.CredentialMissing {
		text += "\n" + m.theme.ErrorHint.Render(assistant.CredentialHint)
	}
	w := m.width - m.theme.ErrorBanner.GetHorizontalBorderSize()
	return m.theme.ErrorBanner.Width(w).Render(text)
}

// =============================================================================
// THREAD
// =============================================================================

func (m Model) renderThread() string {
	conv := m.snap.Active
	if len(conv.Messages) == 0 && !m.snap.Loading {
		return m.renderWelcome()
	}

	blocks := make([]string, 0, len(conv.Messages)+1)
	for i := range conv.Messages {
		blocks = append(blocks, m.renderMessage(&conv.Messages[i]))
	}
	if m.snap.Loading {
		blocks = append(blocks, m.spinner.View()+" "+m.theme.Timestamp.Render("Mentor is thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))

	switch msg.Sender {
	case model.SenderUser:
		label := m.theme.UserLabel.Render(msg.Sender.DisplayName()) + " " + stamp
		return label + "\n" + wrap.Render(userBody(msg.Text))

	case model.SenderAssistant:
		label := m.theme.AssistantLabel.Render(msg.Sender.DisplayName()) + " " + stamp
		if msg.IsStreaming {
			return label + "\n" + wrap.Render(msg.Text+m.theme.StreamCursor.Render("▌"))
		}
		return label + "\n" + m.renderer.render(msg.ID, msg.Text)

	default:
		return m.theme.SystemMessage.Width(width).Render(msg.Text)
	}
}

// userBody lays a stored submission out as "Problem:" and doubt lines.
func userBody(text string) string {
	u, doubt := model.ParseUserText(text)
	if u == "" {
		return text
	}
	if doubt == "" {
		return "Problem: " + u
	}
	return "Problem: " + u + "\n" + doubt
}

// =============================================================================
// INPUTS
// =============================================================================

func (m Model) renderInputs() string {
	box := func(f focus, label, view string) string {
		style := m.theme.InputBlurred
		if m.focus == f {
			style = m.theme.InputFocused
		}
		w := m.width - style.GetHorizontalBorderSize()
		return m.theme.InputLabel.Render(label) + "\n" + style.Width(w).Render(view)
	}

	if m.showCode {
		return lipgloss.JoinVertical(lipgloss.Left,
			box(focusCode, "Your code", m.codeInput.View()),
			box(focusLanguage, "Language", m.langInput.View()),
			box(focusDoubt, "What should I look at? (optional)", m.doubtInput.View()),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		box(focusURL, "LeetCode problem URL", m.urlInput.View()),
		box(focusDoubt, "Your doubt", m.doubtInput.View()),
	)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.snap.Streaming:
		left = "Answering... (Esc to stop)"
	case m.snap.Loading:
		left = m.spinner.View() + " Thinking... (Esc to cancel)"
	default:
		left = m.status
	}

	bindings := m.keys.ShortHelp()
	switch {
	case m.focus == focusSidebar:
		bindings = m.keys.SidebarHelp()
	case m.showCode:
		bindings = m.keys.CodeHelp()
	}
	frame := m.theme.StatusBar.GetHorizontalFrameSize()
	room := m.width - frame - lipgloss.Width(left) - 2
	help := m.renderHelp(bindings, room)

	gap := m.width - frame - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + help)
}

// renderHelp renders as many bindings as fit in room columns.
func (m Model) renderHelp(bindings []key.Binding, room int) string {
	parts := make([]string, 0, len(bindings))
	used := 0
	for _, b := range bindings {
		h := b.Help()
		w := lipgloss.Width(h.Key) + 1 + lipgloss.Width(h.Desc)
		if used > 0 {
			w += 2
		}
		if used+w > room {
			break
		}
		used += w
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
