// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dsamentor/internal/assistant"
)

// Status hints shown in the status bar.
const (
	hintEmpty      = "Enter a problem URL or a doubt first."
	hintEmptyCode  = "Paste some code to review first."
	hintBusy       = "Still waiting for the previous answer."
	hintCancelling = "Cancelling..."
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancelMgr.cancel()
		m.assistant.Stop()
		return m, tea.Quit
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Stop):
		return m.handleStop()

	case key.Matches(msg, m.keys.New):
		m.assistant.NewConversation()
		m.resetInputs()
		m.status = ""
		m.refresh()
		cmd := m.setFocus(m.fieldOrder()[0])
		return m, cmd

	case key.Matches(msg, m.keys.Sidebar):
		m.openSidebar()
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.assistant.ToggleTheme()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.CodePanel):
		m.showCode = !m.showCode
		cmd := m.setFocus(m.fieldOrder()[0])
		m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		cmd := m.nextField()
		return m, cmd

	case key.Matches(msg, m.keys.SubmitCode) && m.showCode:
		return m.submitCode()

	case key.Matches(msg, m.keys.Newline) && m.focus == focusDoubt:
		m.doubtInput.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keys.Submit) && m.focus != focusCode:
		if m.showCode {
			return m.submitCode()
		}
		return m.submitProblem()
	}

	return m.updateFocused(msg)
}

// handleStop stops the reveal, then cancels a pending request, then clears
// the banner, whichever applies first.
func (m Model) handleStop() (tea.Model, tea.Cmd) {
	if m.assistant.Stop() {
		m.status = ""
		m.refresh()
		return m, nil
	}
	if m.cancelMgr.cancel() {
		m.status = hintCancelling
		return m, nil
	}
	m.assistant.DismissError()
	m.status = ""
	m.refresh()
	return m, nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) submitProblem() (tea.Model, tea.Cmd) {
	url := strings.TrimSpace(m.urlInput.Value())
	doubt := strings.TrimSpace(m.doubtInput.Value())

	req, err := m.assistant.Prepare(url, doubt)
	if err != nil {
		m.status = submitHint(err, url == "" && doubt == "", hintEmpty)
		m.refresh()
		return m, nil
	}

	m.urlInput.Reset()
	m.doubtInput.Reset()
	cmd := m.dispatch(req)
	return m, cmd
}

func (m Model) submitCode() (tea.Model, tea.Cmd) {
	code := m.codeInput.Value()
	lang := strings.TrimSpace(m.langInput.Value())
	note := strings.TrimSpace(m.doubtInput.Value())

	req, err := m.assistant.PrepareCode(code, lang, note)
	if err != nil {
		m.status = submitHint(err, strings.TrimSpace(code) == "", hintEmptyCode)
		m.refresh()
		return m, nil
	}

	m.resetInputs()
	m.showCode = false
	focusCmd := m.setFocus(focusDoubt)
	cmd := tea.Batch(focusCmd, m.dispatch(req))
	return m, cmd
}

// submitHint maps a rejected submission to a status hint. Errors the
// assistant already shows in the thread or in the banner get no hint.
func submitHint(err error, empty bool, emptyHint string) string {
	switch {
	case errors.Is(err, assistant.ErrBusy):
		return hintBusy
	case errors.Is(err, assistant.ErrInvalidInput) && empty:
		return emptyHint
	default:
		return ""
	}
}

// dispatch runs the request off the Update loop and starts the spinner and
// the redraw ticker.
func (m *Model) dispatch(req *assistant.Request) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelMgr.setCancelFunc(cancel)
	m.status = ""
	m.refresh()

	a := m.assistant
	exec := func() tea.Msg {
		return responseMsg{req: req, res: a.Execute(ctx, req)}
	}
	return tea.Batch(exec, m.spinner.Tick, m.startTicking())
}

func (m Model) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()
	m.assistant.Deliver(msg.req, msg.res)
	if m.status == hintCancelling {
		m.status = ""
	}
	m.refresh()
	cmd := m.startTicking()
	return m, cmd
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) openSidebar() {
	m.returnFocus = m.focus
	m.showSidebar = true
	m.setFocus(focusSidebar)
	m.sidebarIndex = 0
	for i, row := range m.sidebarRows() {
		if !row.bookmark && row.conv.ID == m.snap.Active.ID {
			m.sidebarIndex = i
			break
		}
	}
	m.refresh()
}

func (m *Model) closeSidebar() tea.Cmd {
	return m.closeSidebarTo(m.returnFocus)
}

// closeSidebarTo hides the sidebar and focuses f. Entering another
// conversation lands on the doubt field, as at startup.
func (m *Model) closeSidebarTo(f focus) tea.Cmd {
	m.showSidebar = false
	cmd := m.setFocus(f)
	m.refresh()
	return cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.sidebarRows()

	switch {
	case key.Matches(msg, m.keys.CloseDrawer):
		cmd := m.closeSidebar()
		return m, cmd

	case key.Matches(msg, m.keys.Theme):
		m.assistant.ToggleTheme()
		m.refresh()

	case key.Matches(msg, m.keys.New):
		m.assistant.NewConversation()
		m.resetInputs()
		cmd := m.closeSidebarTo(focusDoubt)
		return m, cmd

	case key.Matches(msg, m.keys.ListUp):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}

	case key.Matches(msg, m.keys.ListDown):
		if m.sidebarIndex < len(rows)-1 {
			m.sidebarIndex++
		}

	case key.Matches(msg, m.keys.Open):
		if row, ok := m.selectedRow(rows); ok {
			if err := m.assistant.SwitchTo(row.conv.ID); err != nil {
				m.log.WithError(err).WithField("conversation", row.conv.ID).Warn("switch failed")
			}
			m.resetInputs()
			cmd := m.closeSidebarTo(focusDoubt)
			return m, cmd
		}

	case key.Matches(msg, m.keys.Bookmark):
		if row, ok := m.selectedRow(rows); ok {
			m.assistant.ToggleBookmark(row.conv.ID)
			m.refresh()
		}

	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.selectedRow(rows); ok {
			if err := m.assistant.Delete(row.conv.ID); err != nil {
				m.log.WithError(err).WithField("conversation", row.conv.ID).Warn("delete failed")
			}
			m.refresh()
		}
	}

	return m, nil
}

func (m Model) selectedRow(rows []sidebarRow) (sidebarRow, bool) {
	if m.sidebarIndex < 0 || m.sidebarIndex >= len(rows) {
		return sidebarRow{}, false
	}
	return rows[m.sidebarIndex], true
}

func (m *Model) clampSidebar() {
	n := len(m.sidebarRows())
	if m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}
