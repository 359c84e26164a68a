// Package sqlite is the relational bookmark table backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// BookmarkTable stores bookmarks in a SQLite database. Change events are
// handed to the publisher after each committed mutation.
type BookmarkTable struct {
	db   *sql.DB
	feed platform.ChangePublisher
	now  func() time.Time
}

// Open opens (and migrates) the database at path. feed may be nil.
func Open(path string, feed platform.ChangePublisher) (*BookmarkTable, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time, SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &BookmarkTable{db: db, feed: feed, now: time.Now}, nil
}

// Close closes the database
func (t *BookmarkTable) Close() error {
	return t.db.Close()
}

// Ping checks the database connection
func (t *BookmarkTable) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// ListByOwner returns the owner's bookmarks, most recent first
func (t *BookmarkTable) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, title, url, user_id, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var bm domain.Bookmark
		var createdAt int64
		if err := rows.Scan(&bm.ID, &bm.Title, &bm.URL, &bm.OwnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bm.CreatedAt = time.Unix(0, createdAt).UTC()
		bookmarks = append(bookmarks, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Insert stores a new row
func (t *BookmarkTable) Insert(ctx context.Context, row domain.NewBookmark) (domain.Bookmark, error) {
	bm := domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		URL:       row.URL,
		CreatedAt: t.now().UTC(),
	}

	_, err := t.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, title, url, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		bm.ID, bm.Title, bm.URL, bm.OwnerID, bm.CreatedAt.UnixNano())
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	t.publish(ctx, domain.ChangeInsert, bm.ID, bm.OwnerID)
	return bm, nil
}

// Delete removes id when owned by ownerID. Missing rows are ignored.
func (t *BookmarkTable) Delete(ctx context.Context, ownerID, id string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if n > 0 {
		t.publish(ctx, domain.ChangeDelete, id, ownerID)
	}
	return nil
}

func (t *BookmarkTable) publish(ctx context.Context, typ domain.ChangeType, id, ownerID string) {
	if t.feed == nil {
		return
	}
	_ = t.feed.Publish(ctx, domain.ChangeEvent{
		Type:       typ,
		Collection: domain.BookmarksCollection,
		RowID:      id,
		OwnerID:    ownerID,
		At:         t.now().UTC(),
	})
}
