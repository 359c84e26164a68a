// Package memory is an in-process bookmark table and change feed.
// It backs the "memory" store backend and the tests of the packages above it.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// Table keeps bookmark rows in a map guarded by a RWMutex.
type Table struct {
	mu     sync.RWMutex
	rows   map[string]domain.Bookmark // ID -> row
	feed   platform.ChangePublisher
	now    func() time.Time
	lastAt time.Time
}

// NewTable creates an empty table publishing into feed (may be nil).
func NewTable(feed platform.ChangePublisher) *Table {
	return &Table{
		rows: make(map[string]domain.Bookmark),
		feed: feed,
		now:  time.Now,
	}
}

// ListByOwner returns the owner's rows, most recent first.
func (t *Table) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	out := make([]domain.Bookmark, 0, len(t.rows))
	for _, row := range t.rows {
		if row.OwnerID == ownerID {
			out = append(out, row)
		}
	}
	t.mu.RUnlock()

	domain.SortNewestFirst(out)
	return out, nil
}

// Insert stores a row and publishes an INSERT event.
func (t *Table) Insert(ctx context.Context, row domain.NewBookmark) (domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bookmark{}, err
	}

	t.mu.Lock()
	createdAt := t.now()
	// Strictly increasing timestamps keep the order total for rapid inserts.
	if !createdAt.After(t.lastAt) {
		createdAt = t.lastAt.Add(time.Nanosecond)
	}
	t.lastAt = createdAt

	bm := domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		URL:       row.URL,
		CreatedAt: createdAt,
	}
	t.rows[bm.ID] = bm
	t.mu.Unlock()

	t.publish(ctx, domain.ChangeInsert, bm)
	return bm, nil
}

// Delete removes the row if it belongs to ownerID and publishes a DELETE event.
func (t *Table) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	row, ok := t.rows[id]
	if !ok || row.OwnerID != ownerID {
		t.mu.Unlock()
		return nil
	}
	delete(t.rows, id)
	t.mu.Unlock()

	t.publish(ctx, domain.ChangeDelete, row)
	return nil
}

// Count returns the number of rows, all owners included.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rows)
}

func (t *Table) publish(ctx context.Context, typ domain.ChangeType, row domain.Bookmark) {
	if t.feed == nil {
		return
	}
	_ = t.feed.Publish(ctx, domain.ChangeEvent{
		Type:       typ,
		Collection: domain.BookmarksCollection,
		RowID:      row.ID,
		OwnerID:    row.OwnerID,
		At:         t.now(),
	})
}
