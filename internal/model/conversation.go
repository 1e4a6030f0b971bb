// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// DefaultTitle is the title of a conversation before its first user message.
const DefaultTitle = "New Conversation"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one tutoring thread.
//
// Timestamp is the last-modified instant. A zero Timestamp marks a
// conversation that never expires under the retention policy.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewConversation creates an empty conversation with the default title.
func NewConversation(id string, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Title:     DefaultTitle,
		Messages:  make([]Message, 0),
		Timestamp: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends msg and bumps the last-modified timestamp.
func (c *Conversation) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.Timestamp) {
		c.Timestamp = msg.Timestamp
	}
}

// FindMessage returns a pointer to the message with the given ID, or nil.
// The pointer is only valid until the next append.
func (c *Conversation) FindMessage(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// UserMessageCount returns how many messages the user has sent.
func (c *Conversation) UserMessageCount() int {
	n := 0
	for _, msg := range c.Messages {
		if msg.Sender == SenderUser {
			n++
		}
	}
	return n
}

// LastProblemURL returns the most recent problem URL the user submitted in
// this conversation, or "" if there is none.
func (c *Conversation) LastProblemURL() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Sender != SenderUser {
			continue
		}
		if u, _ := ParseUserText(c.Messages[i].Text); u != "" {
			return u
		}
	}
	return ""
}

// IsStreaming reports whether any message is still being played back.
func (c *Conversation) IsStreaming() bool {
	for _, msg := range c.Messages {
		if msg.IsStreaming {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers on other goroutines.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// Preview returns a single-line preview of the first user message.
func (c *Conversation) Preview(maxLen int) string {
	for i := range c.Messages {
		if c.Messages[i].Sender == SenderUser && !c.Messages[i].IsEmpty() {
			return c.Messages[i].Preview(maxLen)
		}
	}
	return ""
}
