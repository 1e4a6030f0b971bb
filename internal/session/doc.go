// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps one provider chat session per conversation.
//
// A session handle carries the model-side history of a conversation. It is
// created lazily on the first send, primed once with the tutoring system
// prompt (and the problem context when a URL is known), and dropped whenever
// the conversation is created, switched to or away from, or deleted.
//
// # Key Types
//
//   - Registry: conversation ID to Handle map with exactly-once initialization
//   - Handle: strictly ordered Send on one provider chat
//   - Backend, Chat: provider abstraction implemented by internal/cloud
//
// # Usage
//
//	reg := session.NewRegistry(backend, log)
//	h, err := reg.GetOrCreate(ctx, convID, session.Init{SystemPrompt: p})
//	reply, err := h.Send(ctx, "why does two pointers work here?")
//	reg.Reset(convID)
package session
