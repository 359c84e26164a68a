package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/index"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// refresher re-fetches the owner's bookmarks and replaces the list.
//
// Triggers are coalesced: the trigger channel holds at most one pending
// request, and a single worker drains it. Fetches are serialized by fetchMu,
// whose holder is the only writer of the list. Whatever the burst of change
// events, the last fetch to run started after the last trigger.
type refresher struct {
	table   platform.BookmarkTable
	list    *index.BookmarkList
	logger  logger.Logger
	timeout time.Duration

	fetchMu sync.Mutex
	owner   string

	triggerCh chan struct{}
	stopCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func newRefresher(table platform.BookmarkTable, list *index.BookmarkList, log logger.Logger, timeout time.Duration) *refresher {
	return &refresher{
		table:     table,
		list:      list,
		logger:    log,
		timeout:   timeout,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// start binds the refresher to ownerID and launches the worker.
func (r *refresher) start(ownerID string) {
	r.startOnce.Do(func() {
		r.fetchMu.Lock()
		r.owner = ownerID
		r.fetchMu.Unlock()

		go r.loop()
	})
}

func (r *refresher) loop() {
	for {
		select {
		case <-r.triggerCh:
			_ = r.refresh(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// trigger requests a refresh. It returns false when one is already pending,
// in which case the pending one will cover this request.
func (r *refresher) trigger() bool {
	select {
	case r.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

// refresh fetches synchronously. On failure the list is left untouched.
func (r *refresher) refresh(ctx context.Context) error {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	if r.owner == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	bookmarks, err := r.table.ListByOwner(ctx, r.owner)
	if err != nil {
		r.logger.Warn("bookmark refresh failed, keeping previous list",
			logger.Error(err))
		return err
	}

	gen := r.list.Replace(bookmarks)
	r.logger.Debug("bookmarks refreshed",
		logger.Int("count", len(bookmarks)),
		logger.Uint64("generation", gen),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// stop ends the worker. A fetch already running is left to complete.
func (r *refresher) stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}
