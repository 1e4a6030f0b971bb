// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/model"
)

// Record keys. The names match the layout the web client used so exported
// data stays interchangeable.
const (
	KeyConversations = "conversations"
	KeyBookmarks     = "bookmarkedChats"
	KeyDarkMode      = "darkMode"
)

// =============================================================================
// WIRE FORMAT
// =============================================================================

// conversationRecord is the persisted shape of a conversation. Timestamps
// are Unix milliseconds; 0 means unset.
type conversationRecord struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []messageRecord `json:"messages"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type messageRecord struct {
	ID          string `json:"id,omitempty"`
	Text        string `json:"text"`
	Sender      string `json:"sender"`
	Timestamp   int64  `json:"timestamp,omitempty"`
	IsStreaming bool   `json:"isStreaming,omitempty"`
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func encodeConversation(c model.Conversation) conversationRecord {
	rec := conversationRecord{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  make([]messageRecord, 0, len(c.Messages)),
		Timestamp: toMillis(c.Timestamp),
	}
	for _, m := range c.Messages {
		rec.Messages = append(rec.Messages, messageRecord{
			ID:          m.ID,
			Text:        m.Text,
			Sender:      string(m.Sender),
			Timestamp:   toMillis(m.Timestamp),
			IsStreaming: m.IsStreaming,
		})
	}
	return rec
}

// decodeConversation converts a record back into a conversation. Messages
// with an unknown sender are dropped. A message persisted mid-playback is
// loaded as final since its playback cannot resume.
func decodeConversation(rec conversationRecord) model.Conversation {
	conv := model.Conversation{
		ID:        rec.ID,
		Title:     rec.Title,
		Messages:  make([]model.Message, 0, len(rec.Messages)),
		Timestamp: fromMillis(rec.Timestamp),
	}
	if conv.Title == "" {
		conv.Title = model.DefaultTitle
	}
	for i, m := range rec.Messages {
		sender := model.Sender(m.Sender)
		if !sender.Valid() {
			continue
		}
		msg := model.Message{
			ID:        m.ID,
			Text:      m.Text,
			Sender:    sender,
			Timestamp: fromMillis(m.Timestamp),
		}
		if msg.ID == "" {
			// Older records used the timestamp as identity.
			msg.ID = rec.ID + "-" + strconv.Itoa(i)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv
}

// =============================================================================
// RECORDS
// =============================================================================

// Records reads and writes the typed records on top of a Store.
//
// Readers never fail: an absent or malformed record yields the empty
// default, and individual malformed entries are skipped.
type Records struct {
	store Store
	log   logrus.FieldLogger
}

// NewRecords wraps store. A nil logger discards warnings.
func NewRecords(store Store, log logrus.FieldLogger) *Records {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Records{store: store, log: log}
}

// Store returns the underlying store.
func (r *Records) Store() Store {
	return r.store
}

// LoadConversations returns the persisted conversation list in stored order.
func (r *Records) LoadConversations() []model.Conversation {
	return r.loadConversationList(KeyConversations)
}

// SaveConversations replaces the persisted conversation list.
func (r *Records) SaveConversations(convs []model.Conversation) error {
	return r.saveConversationList(KeyConversations, convs)
}

// LoadBookmarks returns the persisted bookmark snapshots.
func (r *Records) LoadBookmarks() []model.Conversation {
	return r.loadConversationList(KeyBookmarks)
}

// SaveBookmarks replaces the persisted bookmark snapshots.
func (r *Records) SaveBookmarks(convs []model.Conversation) error {
	return r.saveConversationList(KeyBookmarks, convs)
}

// LoadDarkMode returns the persisted theme flag, false when unset.
func (r *Records) LoadDarkMode() bool {
	data, ok := r.read(KeyDarkMode)
	if !ok {
		return false
	}
	var dark bool
	if err := json.Unmarshal(data, &dark); err != nil {
		r.log.WithError(err).WithField("key", KeyDarkMode).Warn("ignoring malformed record")
		return false
	}
	return dark
}

// SaveDarkMode persists the theme flag.
func (r *Records) SaveDarkMode(dark bool) error {
	data, _ := json.Marshal(dark)
	return r.store.Put(KeyDarkMode, data)
}

func (r *Records) read(key string) ([]byte, bool) {
	data, err := r.store.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.WithError(err).WithField("key", key).Warn("failed to read record")
		}
		return nil, false
	}
	return data, len(data) > 0
}

func (r *Records) loadConversationList(key string) []model.Conversation {
	out := make([]model.Conversation, 0)
	data, ok := r.read(key)
	if !ok {
		return out
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("ignoring malformed record")
		return out
	}

	skipped := 0
	for _, item := range raw {
		var rec conversationRecord
		if err := json.Unmarshal(item, &rec); err != nil || rec.ID == "" {
			skipped++
			continue
		}
		out = append(out, decodeConversation(rec))
	}
	if skipped > 0 {
		r.log.WithFields(logrus.Fields{"key": key, "skipped": skipped}).Warn("skipped malformed entries")
	}
	return out
}

func (r *Records) saveConversationList(key string, convs []model.Conversation) error {
	recs := make([]conversationRecord, 0, len(convs))
	for _, c := range convs {
		recs = append(recs, encodeConversation(c))
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return r.store.Put(key, data)
}
