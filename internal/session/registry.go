// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrBusy is returned when a send is attempted while another send on the
	// same handle has not returned yet.
	ErrBusy = errors.New("a request is already pending for this conversation")

	// ErrNoConversation is returned when no conversation ID is given.
	ErrNoConversation = errors.New("conversation id is required")
)

// =============================================================================
// BACKEND INTERFACES
// =============================================================================

// Chat is a provider-side conversation context. Each Send sees the history
// of the previous sends on the same Chat.
type Chat interface {
	Send(ctx context.Context, text string) (string, error)
}

// Backend creates provider chats.
type Backend interface {
	NewChat(ctx context.Context) (Chat, error)
}

// Init is the payload sent once when a handle is created.
type Init struct {
	// SystemPrompt primes the model with its tutoring role.
	SystemPrompt string

	// Primer asks the model to load the problem context. Optional.
	Primer string

	// Pace, if set, is called before each init message is sent.
	Pace func(ctx context.Context) error
}

func (i Init) messages() []string {
	out := make([]string, 0, 2)
	if i.SystemPrompt != "" {
		out = append(out, i.SystemPrompt)
	}
	if i.Primer != "" {
		out = append(out, i.Primer)
	}
	return out
}

// =============================================================================
// HANDLE
// =============================================================================

// Handle is the live chat session bound to one conversation.
type Handle struct {
	conversationID string
	chat           Chat
	createdAt      time.Time

	busy  atomic.Bool
	sends atomic.Int64
}

// ConversationID returns the conversation this handle is bound to.
func (h *Handle) ConversationID() string {
	return h.conversationID
}

// CreatedAt returns when the handle was initialized.
func (h *Handle) CreatedAt() time.Time {
	return h.createdAt
}

// Sends returns how many user messages went through this handle.
func (h *Handle) Sends() int64 {
	return h.sends.Load()
}

// Send delivers text and returns the full reply. Sends on a handle are
// strictly ordered; a concurrent second send fails with ErrBusy.
func (h *Handle) Send(ctx context.Context, text string) (string, error) {
	if !h.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer h.busy.Store(false)

	reply, err := h.chat.Send(ctx, text)
	if err != nil {
		return "", err
	}
	h.sends.Add(1)
	return reply, nil
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps conversation IDs to live handles. There is at most one
// handle per conversation; it is created lazily on first use and dropped by
// Reset.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	handles map[string]*Handle
	epoch   uint64

	// gens and pending only hold conversations with a GetOrCreate in
	// flight; Reset bumps the generation so that creation is discarded.
	gens    map[string]uint64
	pending map[string]int
	group   singleflight.Group
	log     logrus.FieldLogger
}

// NewRegistry creates a registry creating chats through backend.
func NewRegistry(backend Backend, log logrus.FieldLogger) *Registry {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Registry{
		backend: backend,
		handles: make(map[string]*Handle),
		gens:    make(map[string]uint64),
		pending: make(map[string]int),
		log:     log,
	}
}

// GetOrCreate returns the live handle for conversationID, creating it and
// sending init exactly once when there is none. Concurrent callers for the
// same conversation share one initialization. A failed initialization
// leaves no handle behind.
//
// If the conversation is reset while initialization is in flight, the new
// handle is returned to the caller but not kept.
func (r *Registry) GetOrCreate(ctx context.Context, conversationID string, init Init) (*Handle, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	r.mu.Lock()
	if h := r.handles[conversationID]; h != nil {
		r.mu.Unlock()
		return h, nil
	}
	gen, epoch := r.gens[conversationID], r.epoch
	r.pending[conversationID]++
	r.mu.Unlock()
	defer r.done(conversationID)

	key := conversationID + "#" + strconv.FormatUint(epoch, 10) + "." + strconv.FormatUint(gen, 10)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.create(ctx, conversationID, init, gen, epoch)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// done forgets the generation of conversationID once no caller is left
// waiting on its creation.
func (r *Registry) done(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[conversationID]--; r.pending[conversationID] <= 0 {
		delete(r.pending, conversationID)
		delete(r.gens, conversationID)
	}
}

func (r *Registry) create(ctx context.Context, conversationID string, init Init, gen, epoch uint64) (*Handle, error) {
	start := time.Now()
	chat, err := r.backend.NewChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	for _, msg := range init.messages() {
		if init.Pace != nil {
			if err := init.Pace(ctx); err != nil {
				return nil, err
			}
		}
		if _, err := chat.Send(ctx, msg); err != nil {
			return nil, fmt.Errorf("initialize chat session: %w", err)
		}
	}

	h := &Handle{conversationID: conversationID, chat: chat, createdAt: time.Now()}

	r.mu.Lock()
	kept := r.epoch == epoch && r.gens[conversationID] == gen
	if kept {
		r.handles[conversationID] = h
	}
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"conversation": conversationID,
		"primed":       init.Primer != "",
		"duration":     time.Since(start).Round(time.Millisecond),
		"kept":         kept,
	}).Debug("chat session initialized")
	return h, nil
}

// Reset drops the handle for conversationID. The next GetOrCreate
// initializes a fresh one.
func (r *Registry) Reset(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, conversationID)
	if r.pending[conversationID] > 0 {
		r.gens[conversationID]++
	}
}

// ResetAll drops every handle.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = make(map[string]*Handle)
	r.gens = make(map[string]uint64)
	r.epoch++
}

// Has reports whether a live handle exists for conversationID.
func (r *Registry) Has(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[conversationID]
	return ok
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
