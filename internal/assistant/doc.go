// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant orchestrates a tutoring chat: it validates submissions,
// records messages, sends composed prompts through the gateway and reveals
// replies through playback.
//
// A submission is split in three steps so the UI never blocks:
//
//	req, err := a.Prepare(url, doubt) // UI goroutine, fast
//	res := a.Execute(ctx, req)        // background, network
//	a.Deliver(req, res)               // any goroutine, starts playback
//
// The UI renders from Snapshot, which is safe to call at any time.
//
// # Key Types
//
//   - Assistant: the orchestrator; safe for concurrent use
//   - Request: a prepared submission waiting for Execute
//   - Result: the outcome of Execute
//   - Snapshot: immutable view state for rendering
package assistant
