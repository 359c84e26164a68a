package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestBookmarkTableListByOwner(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	table := NewBookmarkTable(store, nil)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	older, err := table.Insert(ctx, domain.NewBookmark{Title: "Older", URL: "https://older.example", OwnerID: "alice"})
	require.NoError(t, err)
	_, err = table.Insert(ctx, domain.NewBookmark{Title: "Bob's", URL: "https://bob.example", OwnerID: "bob"})
	require.NoError(t, err)
	newer, err := table.Insert(ctx, domain.NewBookmark{Title: "Newer", URL: "https://newer.example", OwnerID: "alice"})
	require.NoError(t, err)

	got, err := table.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, newer.ID, got[0].ID)
	require.Equal(t, older.ID, got[1].ID)
	require.Equal(t, "Newer", got[0].Title)

	empty, err := table.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestBookmarkTableDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	table := NewBookmarkTable(store, nil)

	bm, err := table.Insert(ctx, domain.NewBookmark{Title: "One", URL: "https://one.example", OwnerID: "alice"})
	require.NoError(t, err)

	// Row owned by someone else stays.
	require.NoError(t, table.Delete(ctx, "bob", bm.ID))
	require.True(t, mr.Exists(BookmarkKey(bm.ID)))

	require.NoError(t, table.Delete(ctx, "alice", bm.ID))
	require.False(t, mr.Exists(BookmarkKey(bm.ID)))

	got, err := table.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, got)

	// Unknown id is a no-op.
	require.NoError(t, table.Delete(ctx, "alice", "does-not-exist"))
}

func TestBookmarkTableSkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	table := NewBookmarkTable(store, nil)

	bm, err := table.Insert(ctx, domain.NewBookmark{Title: "One", URL: "https://one.example", OwnerID: "alice"})
	require.NoError(t, err)
	mr.Del(BookmarkKey(bm.ID))

	got, err := table.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestChangeFeedPublishesMutations(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	feed := NewChangeFeed(store, logger.Nop())
	table := NewBookmarkTable(store, feed)

	var mu sync.Mutex
	var events []domain.ChangeEvent
	sub, err := feed.Subscribe(ctx, domain.BookmarksCollection, func(ev domain.ChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	bm, err := table.Insert(ctx, domain.NewBookmark{Title: "One", URL: "https://one.example", OwnerID: "alice"})
	require.NoError(t, err)
	require.NoError(t, table.Delete(ctx, "alice", bm.ID))
	// No event for a delete that removed nothing.
	require.NoError(t, table.Delete(ctx, "alice", bm.ID))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, domain.ChangeInsert, events[0].Type)
	require.Equal(t, domain.ChangeDelete, events[1].Type)
	require.Equal(t, bm.ID, events[1].RowID)
	mu.Unlock()

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	sessions := NewSessionStore(store)

	rec := SessionRecord{UserID: "alice", Email: "alice@example.com", Provider: "google"}
	require.NoError(t, sessions.SaveSession(ctx, "tok", rec, time.Minute))

	got, err := sessions.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "alice", got.UserID)
	require.Equal(t, "alice@example.com", got.Email)

	mr.FastForward(2 * time.Minute)
	_, err = sessions.GetSession(ctx, "tok")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, sessions.SaveSession(ctx, "tok2", rec, time.Minute))
	require.NoError(t, sessions.DeleteSession(ctx, "tok2"))
	_, err = sessions.GetSession(ctx, "tok2")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
