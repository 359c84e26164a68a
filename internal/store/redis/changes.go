package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// ChangeFeed carries change events over Redis pub/sub.
// Reconnection after a dropped connection is handled by go-redis.
type ChangeFeed struct {
	*Store
	logger logger.Logger
}

// NewChangeFeed creates a change feed on top of store
func NewChangeFeed(store *Store, log logger.Logger) *ChangeFeed {
	return &ChangeFeed{Store: store, logger: log}
}

// Publish sends ev on the channel of its collection
func (f *ChangeFeed) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, ChangesChannel(ev.Collection), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe opens one pub/sub connection for collection and calls handler for
// every event received on it. The subscription is confirmed before returning.
func (f *ChangeFeed) Subscribe(ctx context.Context, collection string, handler platform.ChangeHandler) (platform.Subscription, error) {
	channel := ChangesChannel(collection)
	ps := f.client.Subscribe(ctx, channel)

	// Wait for the subscribe confirmation so no event published after
	// Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &pubsubSubscription{
		ps:   ps,
		done: make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.logger.Warn("dropping malformed change event",
					logger.String("channel", msg.Channel),
					logger.Error(err))
				continue
			}
			handler(ev)
		}
	}()

	f.logger.Debug("change feed subscribed", logger.String("channel", channel))
	return sub, nil
}

type pubsubSubscription struct {
	ps        *redis.PubSub
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Close releases the pub/sub connection and waits for the delivery goroutine.
func (s *pubsubSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ps.Close()
		<-s.done
	})
	return s.closeErr
}
