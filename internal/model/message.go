// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderAssistant, SenderSystem:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Mentor"
	case SenderSystem:
		return "System"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation thread.
//
// Messages are append-only; only the most recent assistant message may grow
// in place while IsStreaming is set.
type Message struct {
	ID          string    `json:"id" yaml:"id"`
	Text        string    `json:"text" yaml:"text"`
	Sender      Sender    `json:"sender" yaml:"sender"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	IsStreaming bool      `json:"isStreaming,omitempty" yaml:"streaming,omitempty"`
}

// NewMessage creates a message with a generated ID stamped at now.
func NewMessage(sender Sender, text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: now,
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string, now time.Time) Message {
	return NewMessage(SenderUser, text, now)
}

// NewSystemMessage creates a system notice shown inline in the thread.
func NewSystemMessage(text string, now time.Time) Message {
	return NewMessage(SenderSystem, text, now)
}

// NewStreamingMessage creates an empty assistant message that grows through
// AppendChunk until Finalize is called.
func NewStreamingMessage(now time.Time) Message {
	msg := NewMessage(SenderAssistant, "", now)
	msg.IsStreaming = true
	return msg
}

// AppendChunk appends streamed text. It is a no-op once the message is final.
func (m *Message) AppendChunk(chunk string) {
	if m.IsStreaming {
		m.Text += chunk
	}
}

// Finalize marks the message as complete.
func (m *Message) Finalize() {
	m.IsStreaming = false
}

// Preview returns a single-line preview of at most maxLen runes.
func (m *Message) Preview(maxLen int) string {
	text := strings.Join(strings.Fields(m.Text), " ")
	runes := []rune(text)
	if maxLen <= 3 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty reports whether the message has no text yet.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// =============================================================================
// USER TEXT FORMAT
// =============================================================================

const (
	problemPrefix = "Problem: "
	doubtPrefix   = "Doubt: "
)

// ProblemURLMarker is the substring every accepted problem URL contains.
const ProblemURLMarker = "leetcode.com/problems/"

// UserText renders a submission the way it is stored in the thread:
// "Problem: <url>\nDoubt: <doubt>", "Problem: <url>", or the bare doubt.
func UserText(problemURL, doubt string) string {
	switch {
	case problemURL != "" && doubt != "":
		return problemPrefix + problemURL + "\n" + doubtPrefix + doubt
	case problemURL != "":
		return problemPrefix + problemURL
	default:
		return doubt
	}
}

// ParseUserText is the inverse of UserText. Text without a "Problem: "
// header naming a problem URL is returned as a bare doubt.
func ParseUserText(text string) (problemURL, doubt string) {
	if !strings.HasPrefix(text, problemPrefix) {
		return "", text
	}
	rest := strings.TrimPrefix(text, problemPrefix)
	line, tail, found := strings.Cut(rest, "\n")
	problemURL = strings.TrimSpace(line)
	if !strings.Contains(problemURL, ProblemURLMarker) {
		return "", text
	}
	if found {
		doubt = strings.TrimPrefix(tail, doubtPrefix)
	}
	return problemURL, doubt
}
