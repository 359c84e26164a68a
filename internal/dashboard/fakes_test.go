package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
	"github.com/MrSnakeDoc/smartmark/internal/store/memory"
)

var errRemote = errors.New("remote unavailable")

// fakeAuth maps tokens to identities.
type fakeAuth struct {
	mu       sync.Mutex
	sessions map[string]domain.Authenticated
	signOuts int
	fail     bool
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: make(map[string]domain.Authenticated)}
}

func (a *fakeAuth) grant(token, userID, email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[token] = domain.Authenticated{UserID: userID, Email: email}
}

func (a *fakeAuth) SignInWithProvider(_ context.Context, name, redirectTo string) (string, error) {
	return "https://idp.example/authorize?provider=" + name, nil
}

func (a *fakeAuth) CompleteSignIn(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (a *fakeAuth) GetCurrentSession(_ context.Context, token string) (domain.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return domain.Unauthenticated{}, errRemote
	}
	if s, ok := a.sessions[token]; ok {
		return s, nil
	}
	return domain.Unauthenticated{}, nil
}

func (a *fakeAuth) SignOut(_ context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	delete(a.sessions, token)
	return nil
}

// countingTable wraps a table, counts calls and can fail on demand.
type countingTable struct {
	platform.BookmarkTable
	lists    atomic.Int32
	inserts  atomic.Int32
	deletes  atomic.Int32
	failList atomic.Bool
	failAdd  atomic.Bool
	// block, when set, holds ListByOwner until closed.
	block chan struct{}
	// holdInsert, when set, holds Insert until closed.
	holdInsert chan struct{}
}

func (t *countingTable) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	t.lists.Add(1)
	if t.block != nil {
		<-t.block
	}
	if t.failList.Load() {
		return nil, errRemote
	}
	return t.BookmarkTable.ListByOwner(ctx, ownerID)
}

func (t *countingTable) Insert(ctx context.Context, row domain.NewBookmark) (domain.Bookmark, error) {
	t.inserts.Add(1)
	if t.holdInsert != nil {
		<-t.holdInsert
	}
	if t.failAdd.Load() {
		return domain.Bookmark{}, errRemote
	}
	return t.BookmarkTable.Insert(ctx, row)
}

func (t *countingTable) Delete(ctx context.Context, ownerID, id string) error {
	t.deletes.Add(1)
	return t.BookmarkTable.Delete(ctx, ownerID, id)
}

// navRecorder remembers every navigation.
type navRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (n *navRecorder) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *navRecorder) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

type harness struct {
	auth   *fakeAuth
	feed   *memory.Feed
	raw    *memory.Table
	table  *countingTable
	client *platform.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	feed := memory.NewFeed()
	raw := memory.NewTable(feed)
	table := &countingTable{BookmarkTable: raw}
	auth := newFakeAuth()

	client, err := platform.NewClient(auth, table, feed)
	require.NoError(t, err)

	return &harness{auth: auth, feed: feed, raw: raw, table: table, client: client}
}

func (h *harness) screen(t *testing.T, token string) *Dashboard {
	t.Helper()
	d := New(h.client, token, Options{}, logger.Nop())
	t.Cleanup(d.Close)
	return d
}
