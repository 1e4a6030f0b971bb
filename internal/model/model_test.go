// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_StreamingLifecycle(t *testing.T) {
	now := time.Now()
	msg := NewStreamingMessage(now)

	if !msg.IsStreaming {
		t.Fatal("new streaming message should be streaming")
	}
	if msg.Sender != SenderAssistant {
		t.Errorf("Sender = %q, want assistant", msg.Sender)
	}

	msg.AppendChunk("Think ")
	msg.AppendChunk("about it.")
	msg.Finalize()

	if msg.Text != "Think about it." {
		t.Errorf("Text = %q", msg.Text)
	}
	msg.AppendChunk(" ignored")
	if msg.Text != "Think about it." {
		t.Errorf("AppendChunk after Finalize changed text to %q", msg.Text)
	}
}

func TestMessage_IDsAreUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserMessage("x", now).ID
		if seen[id] {
			t.Fatalf("duplicate message id %q", id)
		}
		seen[id] = true
	}
}

func TestSender_Valid(t *testing.T) {
	for _, s := range []Sender{SenderUser, SenderAssistant, SenderSystem} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Sender("tool").Valid() {
		t.Error("tool should not be a valid sender")
	}
}

// =============================================================================
// USER TEXT TESTS
// =============================================================================

func TestUserText_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		doubt string
		text  string
	}{
		{"both", "https://leetcode.com/problems/two-sum/", "why a hash map?",
			"Problem: https://leetcode.com/problems/two-sum/\nDoubt: why a hash map?"},
		{"url only", "https://leetcode.com/problems/two-sum/", "",
			"Problem: https://leetcode.com/problems/two-sum/"},
		{"doubt only", "", "what is a heap", "what is a heap"},
		{"doubt with problem prefix", "", "Problem: I don't understand recursion", "Problem: I don't understand recursion"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := UserText(tc.url, tc.doubt)
			if got != tc.text {
				t.Fatalf("UserText = %q, want %q", got, tc.text)
			}
			u, d := ParseUserText(got)
			if u != tc.url || d != tc.doubt {
				t.Errorf("ParseUserText = (%q, %q), want (%q, %q)", u, d, tc.url, tc.doubt)
			}
		})
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddMessageTouchesTimestamp(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	conv := NewConversation("c1", start)

	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, DefaultTitle)
	}

	later := start.Add(time.Minute)
	conv.AddMessage(NewUserMessage("hello", later))

	if !conv.Timestamp.Equal(later) {
		t.Errorf("Timestamp = %v, want %v", conv.Timestamp, later)
	}
	if conv.UserMessageCount() != 1 {
		t.Errorf("UserMessageCount = %d, want 1", conv.UserMessageCount())
	}
}

func TestConversation_LastProblemURL(t *testing.T) {
	now := time.Now()
	conv := NewConversation("c1", now)
	if got := conv.LastProblemURL(); got != "" {
		t.Errorf("empty conversation LastProblemURL = %q", got)
	}

	conv.AddMessage(NewUserMessage(UserText("https://leetcode.com/problems/two-sum/", ""), now))
	conv.AddMessage(NewMessage(SenderAssistant, "Problem: not a user message", now))
	conv.AddMessage(NewUserMessage("and the edge cases?", now))
	conv.AddMessage(NewUserMessage("Problem: I don't understand recursion", now))

	if got := conv.LastProblemURL(); got != "https://leetcode.com/problems/two-sum/" {
		t.Errorf("LastProblemURL = %q", got)
	}
}

func TestConversation_CloneIsDeep(t *testing.T) {
	now := time.Now()
	conv := NewConversation("c1", now)
	conv.AddMessage(NewUserMessage("hello", now))

	clone := conv.Clone()
	clone.Messages[0].Text = "changed"

	if conv.Messages[0].Text != "hello" {
		t.Error("Clone shares message storage with the original")
	}
}

func TestConversation_FindMessage(t *testing.T) {
	now := time.Now()
	conv := NewConversation("c1", now)
	reply := NewStreamingMessage(now)
	conv.AddMessage(reply)

	found := conv.FindMessage(reply.ID)
	if found == nil {
		t.Fatal("FindMessage returned nil")
	}
	found.AppendChunk("abc")
	if conv.Messages[0].Text != "abc" {
		t.Errorf("FindMessage should return a pointer into the thread")
	}
	if !conv.IsStreaming() {
		t.Error("IsStreaming should be true while a reply streams")
	}
	if conv.FindMessage("missing") != nil {
		t.Error("FindMessage(missing) should be nil")
	}
}
