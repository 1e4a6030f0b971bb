// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package playback reveals a complete reply progressively, a few characters
// at a time, so it reads like a streamed response.
//
// # Key Types
//
//   - Simulator: plans chunks and delays and starts playbacks
//   - Playback: one running reveal that can be cancelled
//   - Sink: receives chunks in order, then the end-of-stream signal once
//
// # Usage
//
//	sim := playback.New()
//	p := sim.Play(reply, func(chunk string, done bool) {
//	    if done {
//	        finalize()
//	        return
//	    }
//	    appendChunk(chunk)
//	})
//	...
//	p.Cancel() // no sink call happens after this returns
//
// A sink must not call Cancel on its own playback.
package playback
