package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

// BookmarkList is the in-memory ordered list shown on one screen.
//
// Replace is the only mutation: the list is always the full result of the
// last completed fetch, never a merge. Readers get copies.
type BookmarkList struct {
	mu          sync.RWMutex
	bookmarks   []domain.Bookmark
	byID        map[string]int // ID -> position
	generation  uint64         // bumped on every Replace
	lastRefresh time.Time      // timestamp of last Replace
	watchers    map[int]chan uint64
	nextWatch   int
}

// NewBookmarkList creates an empty list
func NewBookmarkList() *BookmarkList {
	return &BookmarkList{
		byID:     make(map[string]int),
		watchers: make(map[int]chan uint64),
	}
}

// Replace swaps the whole list for bookmarks and notifies watchers.
// It returns the new generation.
func (l *BookmarkList) Replace(bookmarks []domain.Bookmark) uint64 {
	next := make([]domain.Bookmark, len(bookmarks))
	copy(next, bookmarks)

	byID := make(map[string]int, len(next))
	for i, bm := range next {
		byID[bm.ID] = i
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.bookmarks = next
	l.byID = byID
	l.generation++
	l.lastRefresh = time.Now()

	for _, ch := range l.watchers {
		// Keep only the latest generation in each watcher slot.
		select {
		case <-ch:
		default:
		}
		ch <- l.generation
	}
	return l.generation
}

// Snapshot returns a copy of the list, most recent first
func (l *BookmarkList) Snapshot() []domain.Bookmark {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Bookmark, len(l.bookmarks))
	copy(out, l.bookmarks)
	return out
}

// Get retrieves a bookmark by ID
func (l *BookmarkList) Get(id string) (domain.Bookmark, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byID[id]
	if !ok {
		return domain.Bookmark{}, false
	}
	return l.bookmarks[i], true
}

// Count returns the number of bookmarks in the list
func (l *BookmarkList) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.bookmarks)
}

// Generation returns the number of completed replaces
func (l *BookmarkList) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.generation
}

// GetLastRefresh returns the timestamp of the last replace
func (l *BookmarkList) GetLastRefresh() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.lastRefresh
}

// Watch returns a channel receiving the generation after each replace.
// Intermediate generations are skipped for slow readers. Call cancel to stop.
func (l *BookmarkList) Watch() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	l.mu.Lock()
	id := l.nextWatch
	l.nextWatch++
	l.watchers[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.watchers, id)
			l.mu.Unlock()
		})
	}
	return ch, cancel
}
