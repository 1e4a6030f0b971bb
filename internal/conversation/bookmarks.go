// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"fmt"

	"github.com/jeranaias/dsamentor/internal/model"
)

// MaxBookmarks is the capacity of the bookmark set.
const MaxBookmarks = 2

// BookmarkLimitMessage is shown to the user when the set is full.
const BookmarkLimitMessage = "You can only bookmark 2 conversations. Please remove one first."

// ToggleBookmark removes id from the bookmark set if present, otherwise adds
// a snapshot of it. Adding past MaxBookmarks returns ErrBookmarkLimit and
// changes nothing.
func (r *Repository) ToggleBookmark(id string) (bookmarked bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if b := r.bookmarkIndexLocked(id); b >= 0 {
		r.bookmarks = append(r.bookmarks[:b], r.bookmarks[b+1:]...)
		return false, r.persistBookmarksLocked()
	}
	if len(r.bookmarks) >= MaxBookmarks {
		return false, ErrBookmarkLimit
	}
	r.bookmarks = append(r.bookmarks, r.convs[idx].Clone())
	return true, r.persistBookmarksLocked()
}

// IsBookmarked reports whether id is in the bookmark set.
func (r *Repository) IsBookmarked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarkIndexLocked(id) >= 0
}

// Bookmarks returns the bookmark snapshots in the order they were added.
func (r *Repository) Bookmarks() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.bookmarks)
}

func (r *Repository) bookmarkIndexLocked(id string) int {
	for i := range r.bookmarks {
		if r.bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}

// dropOrphanBookmarksLocked removes bookmarks whose conversation is gone.
func (r *Repository) dropOrphanBookmarksLocked() {
	kept := r.bookmarks[:0]
	for _, b := range r.bookmarks {
		if r.indexOf(b.ID) >= 0 {
			kept = append(kept, b)
		}
	}
	r.bookmarks = kept
}

func (r *Repository) persistBookmarksLocked() error {
	if err := r.records.SaveBookmarks(r.bookmarks); err != nil {
		r.log.WithError(err).Warn("failed to persist bookmarks")
		return err
	}
	return nil
}
