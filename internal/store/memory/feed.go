package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// Feed is an in-process change feed. Each subscriber gets its own goroutine
// and a buffered queue, so a slow handler never blocks publishers.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	collection string
	events     chan domain.ChangeEvent
	done       chan struct{}
	closeOnce  sync.Once
}

const subscriberBuffer = 256

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]*subscriber)}
}

// Publish fans ev out to the subscribers of ev.Collection.
// Events are dropped for subscribers whose queue is full.
func (f *Feed) Publish(_ context.Context, ev domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.subs {
		if s.collection != ev.Collection {
			continue
		}
		select {
		case s.events <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers handler for collection.
func (f *Feed) Subscribe(_ context.Context, collection string, handler platform.ChangeHandler) (platform.Subscription, error) {
	s := &subscriber{
		collection: collection,
		events:     make(chan domain.ChangeEvent, subscriberBuffer),
		done:       make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = s
	f.mu.Unlock()

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case ev := <-s.events:
				handler(ev)
			case <-s.done:
				return
			}
		}
	}()

	return &subscription{feed: f, id: id, sub: s, exited: exited}, nil
}

// Subscribers returns the number of open subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

type subscription struct {
	feed   *Feed
	id     int
	sub    *subscriber
	exited chan struct{}
}

func (s *subscription) Close() error {
	s.sub.closeOnce.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s.id)
		s.feed.mu.Unlock()
		close(s.sub.done)
	})
	<-s.exited
	return nil
}
