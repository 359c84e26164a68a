package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

// ErrBookmarkNotFound is returned by GetBookmark for unknown IDs
var ErrBookmarkNotFound = errors.New("bookmark not found")

// BookmarkTable stores bookmark rows in Redis and publishes a change event
// for every row it inserts or removes.
//
// Layout:
//
//	smartmark:bookmark:<id>              JSON row
//	smartmark:bookmarks:owner:<owner>    ZSET id scored by created_at (unix nanos)
type BookmarkTable struct {
	*Store
	feed *ChangeFeed
}

// NewBookmarkTable creates the table, feed may be nil to disable events
func NewBookmarkTable(store *Store, feed *ChangeFeed) *BookmarkTable {
	return &BookmarkTable{Store: store, feed: feed}
}

// Insert stores a new bookmark row
func (t *BookmarkTable) Insert(ctx context.Context, row domain.NewBookmark) (domain.Bookmark, error) {
	bm := domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		URL:       row.URL,
		CreatedAt: t.now().UTC(),
	}

	data, err := json.Marshal(bm)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(bm.ID), data, 0)
		pipe.ZAdd(ctx, OwnerBookmarksKey(bm.OwnerID), redis.Z{
			Score:  float64(bm.CreatedAt.UnixNano()),
			Member: bm.ID,
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	t.publish(ctx, domain.ChangeInsert, bm)
	return bm, nil
}

// GetBookmark retrieves a bookmark from Redis by ID
func (t *BookmarkTable) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := t.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrBookmarkNotFound, id)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}

	return &bookmark, nil
}

// ListByOwner retrieves the bookmarks of an owner, most recent first
func (t *BookmarkTable) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	ids, err := t.client.ZRevRange(ctx, OwnerBookmarksKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a row, skip it
			continue
		}
		var bm domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &bm); err != nil {
			continue
		}
		if bm.OwnerID != ownerID {
			continue
		}
		bookmarks = append(bookmarks, bm)
	}

	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Delete removes a bookmark owned by ownerID. Missing rows are ignored.
func (t *BookmarkTable) Delete(ctx context.Context, ownerID, id string) error {
	bm, err := t.GetBookmark(ctx, id)
	if errors.Is(err, ErrBookmarkNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if bm.OwnerID != ownerID {
		return nil
	}

	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BookmarkKey(id))
		pipe.ZRem(ctx, OwnerBookmarksKey(ownerID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	t.publish(ctx, domain.ChangeDelete, *bm)
	return nil
}

func (t *BookmarkTable) publish(ctx context.Context, typ domain.ChangeType, bm domain.Bookmark) {
	if t.feed == nil {
		return
	}
	// The row is committed, a lost notification only delays the next refresh.
	_ = t.feed.Publish(ctx, domain.ChangeEvent{
		Type:       typ,
		Collection: domain.BookmarksCollection,
		RowID:      bm.ID,
		OwnerID:    bm.OwnerID,
		At:         time.Now().UTC(),
	})
}
