// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/storage"
)

// RetentionPeriod is how long a conversation survives without being touched.
const RetentionPeriod = 72 * time.Hour

var (
	// ErrNotFound is returned for an unknown conversation ID.
	ErrNotFound = errors.New("conversation not found")

	// ErrBookmarkLimit is returned when bookmarking past MaxBookmarks.
	ErrBookmarkLimit = errors.New("bookmark limit reached")
)

// SessionResetter drops the chat session bound to a conversation.
// session.Registry satisfies it.
type SessionResetter interface {
	Reset(conversationID string)
}

// Options configures a Repository. Zero values select the defaults.
type Options struct {
	// Now returns the current time (default time.Now).
	Now func() time.Time

	// NewID generates conversation IDs (default UUIDv7).
	NewID func() string

	// Sessions is told when a conversation's chat session must be dropped.
	Sessions SessionResetter

	// Log receives persistence warnings.
	Log logrus.FieldLogger
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the single source of truth for conversations.
//
// Every persisted mutation re-serializes the whole record. Persistence
// failures are logged and returned, but in-memory state is kept so the UI
// stays usable.
type Repository struct {
	mu sync.Mutex

	records   *storage.Records
	convs     []model.Conversation
	bookmarks []model.Conversation
	activeID  string
	darkMode  bool

	now      func() time.Time
	newID    func() string
	sessions SessionResetter
	log      logrus.FieldLogger
}

// New creates a repository backed by records. Call LoadAll or Bootstrap
// before use.
func New(records *storage.Records, opts Options) *Repository {
	r := &Repository{
		records:  records,
		now:      opts.Now,
		newID:    opts.NewID,
		sessions: opts.Sessions,
		log:      opts.Log,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = newConversationID
	}
	if r.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		r.log = l
	}
	return r
}

func newConversationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// LoadAll reads persisted state, drops expired conversations and orphaned
// bookmarks, writes the filtered list back, and returns it in stored order.
func (r *Repository) LoadAll() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := r.records.LoadConversations()
	r.convs = filterExpired(loaded, r.now())
	if dropped := len(loaded) - len(r.convs); dropped > 0 {
		r.log.WithField("dropped", dropped).Info("expired conversations removed")
	}

	r.bookmarks = r.bookmarks[:0]
	for _, b := range r.records.LoadBookmarks() {
		if r.indexOf(b.ID) >= 0 && len(r.bookmarks) < MaxBookmarks {
			r.bookmarks = append(r.bookmarks, b)
		}
	}
	r.darkMode = r.records.LoadDarkMode()

	if r.indexOf(r.activeID) < 0 {
		r.activeID = ""
	}
	r.persistLocked()
	r.persistBookmarksLocked()
	return cloneAll(r.convs)
}

// Bootstrap loads state and activates the most recently updated
// conversation, creating one if none survived retention.
func (r *Repository) Bootstrap() model.Conversation {
	r.LoadAll()

	r.mu.Lock()
	if recent := r.mostRecentLocked(); recent != nil {
		r.activeID = recent.ID
		conv := recent.Clone()
		r.mu.Unlock()
		return conv
	}
	r.mu.Unlock()
	return r.Create()
}

// filterExpired keeps conversations younger than RetentionPeriod. A zero
// timestamp never expires.
func filterExpired(convs []model.Conversation, now time.Time) []model.Conversation {
	out := make([]model.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.Timestamp.IsZero() || now.Sub(c.Timestamp) < RetentionPeriod {
			out = append(out, c)
		}
	}
	return out
}

// Prune applies the retention policy to the in-memory list and returns how
// many conversations were removed.
func (r *Repository) Prune() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.convs)
	r.convs = filterExpired(r.convs, r.now())
	removed := before - len(r.convs)
	if removed == 0 {
		return 0, nil
	}
	r.dropOrphanBookmarksLocked()
	if r.indexOf(r.activeID) < 0 {
		r.activeID = ""
	}
	if err := r.persistLocked(); err != nil {
		return removed, err
	}
	return removed, r.persistBookmarksLocked()
}

// Create appends a new empty conversation, makes it active, and drops any
// chat session bound to its ID.
func (r *Repository) Create() model.Conversation {
	r.mu.Lock()
	conv := model.NewConversation(r.newID(), r.now())
	r.convs = append(r.convs, conv)
	r.activeID = conv.ID
	r.persistLocked()
	r.mu.Unlock()

	r.resetSession(conv.ID)
	return conv.Clone()
}

// SwitchTo activates id. Chat sessions for both the outgoing and the
// incoming conversation are dropped.
func (r *Repository) SwitchTo(id string) error {
	r.mu.Lock()
	if r.indexOf(id) < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	outgoing := r.activeID
	r.activeID = id
	r.mu.Unlock()

	if outgoing != "" && outgoing != id {
		r.resetSession(outgoing)
	}
	r.resetSession(id)
	return nil
}

// Delete removes id and its bookmark. Deleting the active conversation
// activates the most recently updated remaining one, or creates a new one.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.convs = append(r.convs[:idx], r.convs[idx+1:]...)
	r.dropOrphanBookmarksLocked()
	r.persistBookmarksLocked()
	r.persistLocked()

	wasActive := r.activeID == id
	var next string
	if wasActive {
		r.activeID = ""
		if recent := r.mostRecentLocked(); recent != nil {
			next = recent.ID
		}
	}
	r.mu.Unlock()

	r.resetSession(id)
	if !wasActive {
		return nil
	}
	if next == "" {
		r.Create()
		return nil
	}
	return r.SwitchTo(next)
}

func (r *Repository) resetSession(id string) {
	if r.sessions != nil {
		r.sessions.Reset(id)
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// ActiveID returns the active conversation ID, or "" before Bootstrap.
func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Active returns a copy of the active conversation.
func (r *Repository) Active() (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(r.activeID)
	if idx < 0 {
		return model.Conversation{}, false
	}
	return r.convs[idx].Clone(), true
}

// Get returns a copy of the conversation with id.
func (r *Repository) Get(id string) (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return model.Conversation{}, false
	}
	return r.convs[idx].Clone(), true
}

// List returns copies of all conversations in stored order.
func (r *Repository) List() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.convs)
}

// Recent returns copies of all conversations, most recently updated first.
func (r *Repository) Recent() []model.Conversation {
	out := r.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Len returns the number of conversations.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.convs)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Update applies fn to the conversation with id and persists the result.
func (r *Repository) Update(id string, fn func(*model.Conversation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&r.convs[idx])
	return r.persistLocked()
}

// UpdateUnsaved applies fn without persisting. Playback uses it for
// per-chunk growth; the next Update or Save writes the result.
func (r *Repository) UpdateUnsaved(id string, fn func(*model.Conversation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&r.convs[idx])
	return nil
}

// AppendMessage appends msg to conversation id and persists.
func (r *Repository) AppendMessage(id string, msg model.Message) error {
	return r.Update(id, func(c *model.Conversation) {
		c.AddMessage(msg)
	})
}

// UpdateMessage applies fn to message msgID of conversation id and persists.
func (r *Repository) UpdateMessage(id, msgID string, fn func(*model.Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	msg := r.convs[idx].FindMessage(msgID)
	if msg == nil {
		return fmt.Errorf("%w: message %s in %s", ErrNotFound, msgID, id)
	}
	fn(msg)
	return r.persistLocked()
}

// SetTitle renames conversation id. Blank titles become UntitledTitle.
func (r *Repository) SetTitle(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledTitle
	}
	return r.Update(id, func(c *model.Conversation) {
		c.Title = title
	})
}

// Touch sets the last-activity time of conversation id to now, restarting
// its retention period.
func (r *Repository) Touch(id string) error {
	now := r.now()
	return r.Update(id, func(c *model.Conversation) {
		c.Timestamp = now
	})
}

// Save persists the full in-memory state.
func (r *Repository) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persistLocked(); err != nil {
		return err
	}
	return r.persistBookmarksLocked()
}

// DarkMode returns the theme flag.
func (r *Repository) DarkMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.darkMode
}

// SetDarkMode changes and persists the theme flag.
func (r *Repository) SetDarkMode(dark bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.darkMode = dark
	if err := r.records.SaveDarkMode(dark); err != nil {
		r.log.WithError(err).Warn("failed to persist theme")
		return err
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Repository) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range r.convs {
		if r.convs[i].ID == id {
			return i
		}
	}
	return -1
}

// mostRecentLocked returns the conversation with the latest timestamp.
// Zero timestamps sort oldest.
func (r *Repository) mostRecentLocked() *model.Conversation {
	var best *model.Conversation
	for i := range r.convs {
		if best == nil || r.convs[i].Timestamp.After(best.Timestamp) {
			best = &r.convs[i]
		}
	}
	return best
}

func (r *Repository) persistLocked() error {
	if err := r.records.SaveConversations(r.convs); err != nil {
		r.log.WithError(err).WithField("count", len(r.convs)).Warn("failed to persist conversations")
		return err
	}
	return nil
}

func cloneAll(convs []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(convs))
	for i := range convs {
		out[i] = convs[i].Clone()
	}
	return out
}
