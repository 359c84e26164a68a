package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// SubscriptionState is the lifecycle of a screen's change subscription:
// unarmed -> armed -> released. Released is terminal.
type SubscriptionState int

const (
	Unarmed SubscriptionState = iota
	Armed
	Released
)

func (s SubscriptionState) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

var errSubscriptionUsed = errors.New("change subscription already armed or released")

// subscription holds at most one open change-feed subscription.
type subscription struct {
	mu     sync.Mutex
	state  SubscriptionState
	handle platform.Subscription
}

// arm subscribes to every change of the bookmarks collection, unfiltered,
// and calls onChange for each event. A failed subscribe leaves it unarmed.
func (s *subscription) arm(ctx context.Context, feed platform.ChangeFeed, onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unarmed {
		return errSubscriptionUsed
	}

	handle, err := feed.Subscribe(ctx, domain.BookmarksCollection, func(domain.ChangeEvent) {
		onChange()
	})
	if err != nil {
		return err
	}

	s.handle = handle
	s.state = Armed
	return nil
}

// release closes the subscription. Safe to call in any state, any number of times.
func (s *subscription) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.state == Armed {
		err = s.handle.Close()
		s.handle = nil
	}
	s.state = Released
	return err
}

func (s *subscription) current() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
