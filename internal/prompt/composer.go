// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"errors"
	"strings"
)

// ErrEmptyRequest is returned when neither a problem URL nor a doubt is given.
var ErrEmptyRequest = errors.New("a problem URL or a doubt is required")

// Request is one student submission.
type Request struct {
	// URL is the problem URL, if the student gave one.
	URL string

	// Doubt is the free-text question, if any.
	Doubt string

	// AnchorURL is the last problem URL seen in the conversation. It is only
	// used when URL is empty.
	AnchorURL string
}

// SystemPrompt returns the tutoring system prompt sent once when a chat
// session is initialized.
func SystemPrompt() string {
	return join(basePrompt, formattingInstructions, scopeRules, implementationGuidance, furtherPractice)
}

// ProblemPrimer returns the message that loads the problem context into a
// fresh chat session.
func ProblemPrimer(problemURL string) string {
	if problemURL == "" {
		return ""
	}
	return "Please provide a concise description of the problem at " + problemURL +
		". Include the key points like what the problem is asking for, the input/output format, and any constraints mentioned."
}

// Compose builds the message for one submission. It is pure: the same
// request always yields the same text.
func Compose(req Request) (string, error) {
	url := strings.TrimSpace(req.URL)
	doubt := strings.TrimSpace(req.Doubt)

	switch {
	case url != "" && doubt != "":
		return join(problemAnalysis(url), doubtResponse(doubt), "Student's question: "+doubt), nil
	case url != "":
		return join(problemAnalysis(url), explainProblem(url), guidingQuestionsInstructions), nil
	case doubt != "":
		anchor := ""
		if a := strings.TrimSpace(req.AnchorURL); a != "" {
			anchor = anchorNote(a)
		}
		return join(doubtResponse(doubt), anchor, "Student's question: "+doubt), nil
	default:
		return "", ErrEmptyRequest
	}
}
