// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import "github.com/jeranaias/dsamentor/internal/model"

// Snapshot is a consistent copy of the view state. Mutating it has no
// effect on the Assistant.
type Snapshot struct {
	Active        model.Conversation
	Conversations []model.Conversation // most recently updated first
	Bookmarks     []model.Conversation
	Bookmarked    map[string]bool

	Loading   bool
	Streaming bool
	DarkMode  bool

	// ErrorDetail is the last request error, cleared on the next submit.
	ErrorDetail       string
	CredentialMissing bool

	// Notice is a transient message such as the bookmark limit.
	Notice string
}

// HasError reports whether the error banner should be shown.
func (s Snapshot) HasError() bool {
	return s.ErrorDetail != ""
}

// Busy reports whether submissions are currently rejected.
func (s Snapshot) Busy() bool {
	return s.Loading
}

// Snapshot returns the current view state.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	active, _ := a.repo.Active()
	bookmarks := a.repo.Bookmarks()
	marked := make(map[string]bool, len(bookmarks))
	for _, b := range bookmarks {
		marked[b.ID] = true
	}
	return Snapshot{
		Active:            active,
		Conversations:     a.repo.Recent(),
		Bookmarks:         bookmarks,
		Bookmarked:        marked,
		Loading:           a.pending != nil,
		Streaming:         a.playback != nil,
		DarkMode:          a.repo.DarkMode(),
		ErrorDetail:       a.errorDetail,
		CredentialMissing: a.credentialMissing,
		Notice:            a.notice,
	}
}
