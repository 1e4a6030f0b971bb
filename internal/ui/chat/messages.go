// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dsamentor/internal/assistant"
)

// =============================================================================
// MESSAGES
// =============================================================================

// responseMsg carries the outcome of a hosted-model call back to Update.
type responseMsg struct {
	req *assistant.Request
	res assistant.Result
}

// tickMsg re-renders the thread while a request or reveal is running.
type tickMsg struct {
	Time time.Time
}

// frameInterval paces redraws while the reply is revealed.
const frameInterval = 33 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg{Time: t}
	})
}
