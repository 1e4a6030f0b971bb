// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: one tutoring thread with its messages and last-modified time
//   - Message: a single entry authored by the user, the mentor, or the system
//   - Sender: message author enumeration (user, assistant, system)
//
// # Usage
//
//	conv := model.NewConversation(id, time.Now())
//	conv.AddMessage(model.NewUserMessage(model.UserText(url, doubt), time.Now()))
//
//	reply := model.NewStreamingMessage(time.Now())
//	reply.AppendChunk("Let's think about ")
//	reply.Finalize()
package model
