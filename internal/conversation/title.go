// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/dsamentor/internal/model"
)

const (
	// UntitledTitle is used when the first message has no usable text.
	UntitledTitle = "Untitled Conversation"

	// FallbackProblemName is used for a problem URL without a slug.
	FallbackProblemName = "LeetCode Problem"

	// ProblemURLMarker is the substring every accepted problem URL contains.
	ProblemURLMarker = model.ProblemURLMarker

	titleDoubtLimit = 20
	titleWordLimit  = 3
)

var slugPattern = regexp.MustCompile(`leetcode\.com/problems/([A-Za-z0-9_-]*)`)

// IsProblemURL reports whether s looks like a LeetCode problem URL.
func IsProblemURL(s string) bool {
	return strings.Contains(s, ProblemURLMarker)
}

// ProblemName extracts a display name from a problem URL:
// "https://leetcode.com/problems/two-sum/" becomes "Two Sum".
func ProblemName(problemURL string) string {
	m := slugPattern.FindStringSubmatch(problemURL)
	if m == nil || m[1] == "" {
		return FallbackProblemName
	}
	words := strings.Join(strings.FieldsFunc(m[1], func(r rune) bool {
		return r == '-' || r == '_'
	}), " ")
	if words == "" {
		return FallbackProblemName
	}
	return cases.Title(language.English).String(words)
}

// DeriveTitle computes a conversation title from its first user message.
//
//   - "Problem: <url>\nDoubt: <text>" gives "<Problem Name>: <short doubt>"
//   - a problem URL alone gives "<Problem Name>"
//   - anything else gives the first three words, with "..." if there were more
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return UntitledTitle
	}

	problemURL, doubt := model.ParseUserText(text)
	if problemURL == "" && IsProblemURL(text) {
		problemURL = text
		doubt = ""
	}
	if problemURL != "" {
		name := ProblemName(problemURL)
		if d := strings.Join(strings.Fields(doubt), " "); d != "" {
			return name + ": " + shortenDoubt(d)
		}
		return name
	}

	words := strings.Fields(text)
	title := strings.Join(words[:min(titleWordLimit, len(words))], " ")
	if len(words) > titleWordLimit {
		title += "..."
	}
	return capitalizeFirst(title)
}

// shortenDoubt keeps the doubt within titleDoubtLimit characters including
// the ellipsis.
func shortenDoubt(d string) string {
	runes := []rune(d)
	if len(runes) <= titleDoubtLimit {
		return d
	}
	return string(runes[:titleDoubtLimit-3]) + "..."
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
