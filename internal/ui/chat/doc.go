// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea view of the tutoring assistant.
//
// The model never owns conversation state. It renders assistant.Snapshot
// values and forwards user actions to the assistant. Hosted-model calls run
// in a tea.Cmd goroutine; the reveal of a reply runs on the playback
// goroutine, and a 33ms tick redraws the thread while either is active.
//
// # Key Types
//
//   - Model: the tea.Model (header, sidebar, thread, inputs, status bar)
//   - Options: wiring for New
//   - KeyMap: keyboard bindings
//
// # Layout
//
//	+--------------------------------------------+
//	| DSA Mentor  <title>               [Dark]   |
//	| Error details: ...                         |
//	+------------+-------------------------------+
//	| Bookmarks  | You 10:02                     |
//	| Convers... | Problem: https://leetcode...  |
//	|            | Mentor 10:02                  |
//	+------------+-------------------------------+
//	| LeetCode problem URL / Your doubt          |
//	| status                         key help    |
//	+--------------------------------------------+
//
// # Usage
//
//	m := chat.New(chat.Options{Assistant: a, Theme: theme, Log: log})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package chat
