package domain

import (
	"sort"
	"time"
)

// BookmarksCollection is the name of the remote collection holding bookmark rows.
// Change events are published and subscribed under this name.
const BookmarksCollection = "bookmarks"

// Bookmark represents a saved URL owned by exactly one user.
//
// Bookmarks are never updated in place: they are created by an explicit
// user action and destroyed by an explicit delete.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque unique identifier assigned by the table on insert.
	ID string `json:"id"`

	// OwnerID references the user the bookmark belongs to.
	// Every read is scoped by it.
	OwnerID string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the non-empty display string.
	Title string `json:"title"`

	// URL is the target, it always begins with "http".
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set by the table on insert and is the list sort key
	// (most recent first).
	CreatedAt time.Time `json:"created_at"`
}

// NewBookmark is the row submitted on create. The table assigns ID and CreatedAt.
type NewBookmark struct {
	Title   string
	URL     string
	OwnerID string
}

// SortNewestFirst orders bookmarks by creation time descending.
// Ties are broken by ID so the order is stable across refetches.
func SortNewestFirst(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		a, b := bookmarks[i], bookmarks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
