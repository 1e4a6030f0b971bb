// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the teaching prompts sent to the model.
//
// Everything here is pure string composition; nothing touches the network.
//
// # Key Functions
//
//   - SystemPrompt: tutoring role, formatting rules and scope, sent once per session
//   - ProblemPrimer: loads a problem's context into a fresh session
//   - Compose: message for a URL and/or doubt submission
//   - CodeReview, AnalyzeCode: message and hints for a code submission
//
// # Usage
//
//	msg, err := prompt.Compose(prompt.Request{
//	    URL:   "https://leetcode.com/problems/two-sum/",
//	    Doubt: "why is a hash map faster?",
//	})
package prompt
