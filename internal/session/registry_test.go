// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeChat struct {
	mu       sync.Mutex
	received []string
	block    chan struct{}
	fail     error
}

func (c *fakeChat) Send(ctx context.Context, text string) (string, error) {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return "", c.fail
	}
	c.received = append(c.received, text)
	return "reply to " + text, nil
}

func (c *fakeChat) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.received...)
}

type fakeBackend struct {
	mu      sync.Mutex
	chats   []*fakeChat
	created atomic.Int32
	delay   time.Duration
	fail    error
	newChat func() *fakeChat
}

func (b *fakeBackend) NewChat(ctx context.Context) (Chat, error) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.fail != nil {
		return nil, b.fail
	}
	b.created.Add(1)
	c := &fakeChat{}
	if b.newChat != nil {
		c = b.newChat()
	}
	b.mu.Lock()
	b.chats = append(b.chats, c)
	b.mu.Unlock()
	return c, nil
}

func (b *fakeBackend) last() *fakeChat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chats[len(b.chats)-1]
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestGetOrCreate_InitializesOnce(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(backend, nil)
	ctx := context.Background()
	init := Init{SystemPrompt: "system", Primer: "primer"}

	h1, err := reg.GetOrCreate(ctx, "conv-1", init)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	h2, err := reg.GetOrCreate(ctx, "conv-1", init)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}

	if h1 != h2 {
		t.Error("second GetOrCreate should reuse the live handle")
	}
	if backend.created.Load() != 1 {
		t.Errorf("created %d chats, want 1", backend.created.Load())
	}
	got := backend.last().messages()
	if len(got) != 2 || got[0] != "system" || got[1] != "primer" {
		t.Errorf("init payload = %v, want [system primer]", got)
	}
	if h1.ConversationID() != "conv-1" {
		t.Errorf("ConversationID = %q", h1.ConversationID())
	}
}

func TestGetOrCreate_PrimerOptional(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(backend, nil)

	if _, err := reg.GetOrCreate(context.Background(), "c", Init{SystemPrompt: "system"}); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if got := backend.last().messages(); len(got) != 1 {
		t.Errorf("init payload = %v, want only the system prompt", got)
	}
}

func TestGetOrCreate_RequiresConversation(t *testing.T) {
	reg := NewRegistry(&fakeBackend{}, nil)
	if _, err := reg.GetOrCreate(context.Background(), "", Init{}); !errors.Is(err, ErrNoConversation) {
		t.Errorf("err = %v, want ErrNoConversation", err)
	}
}

func TestGetOrCreate_ConcurrentCallersShareInit(t *testing.T) {
	backend := &fakeBackend{delay: 20 * time.Millisecond}
	reg := NewRegistry(backend, nil)

	var wg sync.WaitGroup
	handles := make([]*Handle, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := reg.GetOrCreate(context.Background(), "conv", Init{SystemPrompt: "s"})
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	if n := backend.created.Load(); n != 1 {
		t.Errorf("created %d chats, want 1", n)
	}
	for _, h := range handles[1:] {
		if h != handles[0] {
			t.Fatal("concurrent callers received different handles")
		}
	}
}

func TestGetOrCreate_FailedInitLeavesNoHandle(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{newChat: func() *fakeChat { return &fakeChat{fail: boom} }}
	reg := NewRegistry(backend, nil)

	_, err := reg.GetOrCreate(context.Background(), "conv", Init{SystemPrompt: "s"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if reg.Has("conv") {
		t.Error("failed initialization must not leave a handle")
	}

	backend.fail = errors.New("backend down")
	if _, err := reg.GetOrCreate(context.Background(), "conv", Init{}); !errors.Is(err, backend.fail) {
		t.Errorf("err = %v, want backend error", err)
	}
}

func TestReset(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(backend, nil)
	ctx := context.Background()

	h1, _ := reg.GetOrCreate(ctx, "a", Init{SystemPrompt: "s"})
	reg.GetOrCreate(ctx, "b", Init{SystemPrompt: "s"})

	reg.Reset("a")
	if reg.Has("a") {
		t.Error("Reset should drop the handle")
	}
	if !reg.Has("b") {
		t.Error("Reset should not touch other conversations")
	}
	reg.Reset("never-created")

	h2, _ := reg.GetOrCreate(ctx, "a", Init{SystemPrompt: "s"})
	if h1 == h2 {
		t.Error("GetOrCreate after Reset should create a fresh handle")
	}
	if backend.created.Load() != 3 {
		t.Errorf("created %d chats, want 3", backend.created.Load())
	}

	reg.ResetAll()
	if reg.Len() != 0 {
		t.Errorf("Len after ResetAll = %d, want 0", reg.Len())
	}
}

func TestReset_DuringInitDiscardsHandle(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{newChat: func() *fakeChat { return &fakeChat{block: release} }}
	reg := NewRegistry(backend, nil)

	done := make(chan *Handle)
	go func() {
		h, err := reg.GetOrCreate(context.Background(), "conv", Init{SystemPrompt: "s"})
		if err != nil {
			t.Errorf("GetOrCreate failed: %v", err)
		}
		done <- h
	}()

	// Wait until the chat exists and is blocked in its init send.
	deadline := time.Now().Add(time.Second)
	for backend.created.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	reg.Reset("conv")
	close(release)

	if h := <-done; h == nil {
		t.Fatal("caller should still receive its handle")
	}
	if reg.Has("conv") {
		t.Error("handle created across a Reset must not be kept")
	}
	if len(reg.gens) != 0 || len(reg.pending) != 0 {
		t.Errorf("generation state left behind: gens=%v pending=%v", reg.gens, reg.pending)
	}
}

func TestReset_KeepsNoStateForIdleConversations(t *testing.T) {
	reg := NewRegistry(&fakeBackend{}, nil)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		id := "conv-" + strconv.Itoa(i)
		if _, err := reg.GetOrCreate(ctx, id, Init{}); err != nil {
			t.Fatalf("GetOrCreate(%s) failed: %v", id, err)
		}
		reg.Reset(id)
		reg.Reset(id)
	}
	if len(reg.gens) != 0 || len(reg.pending) != 0 || reg.Len() != 0 {
		t.Errorf("gens=%d pending=%d handles=%d, want all empty", len(reg.gens), len(reg.pending), reg.Len())
	}

	// A conversation reset while idle initializes again on next use.
	if _, err := reg.GetOrCreate(ctx, "conv-0", Init{}); err != nil {
		t.Fatalf("GetOrCreate after Reset failed: %v", err)
	}
	if !reg.Has("conv-0") {
		t.Error("handle should be kept")
	}
}

func TestGetOrCreate_PacesEachInitMessage(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(backend, nil)

	var calls int
	init := Init{SystemPrompt: "system", Primer: "primer", Pace: func(context.Context) error {
		calls++
		return nil
	}}
	if _, err := reg.GetOrCreate(context.Background(), "conv", init); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Pace called %d times, want 2", calls)
	}

	limited := errors.New("rate limited")
	init = Init{SystemPrompt: "system", Pace: func(context.Context) error { return limited }}
	if _, err := reg.GetOrCreate(context.Background(), "other", init); !errors.Is(err, limited) {
		t.Errorf("err = %v, want the pacing error", err)
	}
	if reg.Has("other") {
		t.Error("a paced-out init must leave no handle")
	}
}

// =============================================================================
// HANDLE TESTS
// =============================================================================

func TestHandle_SendOrderedAndCounted(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(backend, nil)
	h, _ := reg.GetOrCreate(context.Background(), "conv", Init{})

	for _, msg := range []string{"first", "second"} {
		reply, err := h.Send(context.Background(), msg)
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if reply != "reply to "+msg {
			t.Errorf("reply = %q", reply)
		}
	}
	if h.Sends() != 2 {
		t.Errorf("Sends = %d, want 2", h.Sends())
	}
	got := backend.last().messages()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("chat received %v", got)
	}
}

func TestHandle_ConcurrentSendIsBusy(t *testing.T) {
	release := make(chan struct{})
	h := &Handle{conversationID: "conv", chat: &fakeChat{block: release}}

	result := make(chan error)
	go func() {
		_, err := h.Send(context.Background(), "slow")
		result <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !h.busy.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if _, err := h.Send(context.Background(), "overlap"); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping Send err = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-result; err != nil {
		t.Errorf("first Send failed: %v", err)
	}
	if _, err := h.Send(context.Background(), "after"); err != nil {
		t.Errorf("Send after completion failed: %v", err)
	}
}
