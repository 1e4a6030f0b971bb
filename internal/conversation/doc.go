// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation owns the conversation list, the active conversation,
// the bookmark set, and the theme flag.
//
// # Key Types
//
//   - Repository: conversation lifecycle on top of storage.Records
//   - SessionResetter: hook used to drop chat sessions on create/switch/delete
//
// # Lifecycle
//
// Bootstrap loads persisted state, drops conversations untouched for
// RetentionPeriod (a zero timestamp never expires), writes the filtered
// list back, and activates the most recently updated conversation.
//
// # Usage
//
//	repo := conversation.New(records, conversation.Options{Sessions: registry})
//	active := repo.Bootstrap()
//	conv := repo.Create()
//	err := repo.SwitchTo(active.ID)
//	bookmarked, err := repo.ToggleBookmark(conv.ID)
//
// DeriveTitle turns a first user message into a sidebar title:
//
//	conversation.DeriveTitle("Problem: https://leetcode.com/problems/two-sum/") // "Two Sum"
package conversation
