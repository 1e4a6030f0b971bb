// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "strings"

// WelcomeTitle heads an empty conversation.
const WelcomeTitle = "Welcome to DSA Teaching Assistant!"

var welcomeLines = []string{
	"I'm here to help you learn Data Structures & Algorithms.",
	"",
	"How to use:",
	"  1. Paste a LeetCode problem URL (optional)",
	"  2. Describe your specific doubt or question",
	"  3. Press Enter to get personalized help",
	"",
	"Example questions you can ask:",
	`  - "How do I identify if this is a dynamic programming problem?"`,
	`  - "I'm stuck on finding an O(n) approach instead of the O(n^2) solution"`,
	`  - "What data structure would be most efficient for this problem?"`,
	"",
	"Press Ctrl+O to paste your own code for a review.",
}

func (m Model) renderWelcome() string {
	title := m.theme.WelcomeTitle.Render(WelcomeTitle)
	body := m.theme.WelcomeBody.Render(strings.Join(welcomeLines, "\n"))
	return title + "\n" + body
}
