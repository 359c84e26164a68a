package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

const (
	// DefaultScreenIdleTTL is how long a screen may go unvisited before it is torn down.
	DefaultScreenIdleTTL = 30 * time.Minute
	// DefaultScreenGCInterval is how often idle screens are looked for.
	DefaultScreenGCInterval = time.Minute
)

// ScreenEvicter is the part of the screen registry the collector drives.
type ScreenEvicter interface {
	EvictIdle(idle time.Duration) int
	Count() int
}

// ScreenCollector tears down screens nobody has visited for a while, so their
// change subscriptions are released.
type ScreenCollector struct {
	screens  ScreenEvicter
	logger   logger.Logger
	interval time.Duration
	idleTTL  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScreenCollector creates a new screen collector
func NewScreenCollector(
	screens ScreenEvicter,
	log logger.Logger,
	interval time.Duration,
	idleTTL time.Duration,
) *ScreenCollector {
	if interval <= 0 {
		interval = DefaultScreenGCInterval
	}
	if idleTTL <= 0 {
		idleTTL = DefaultScreenIdleTTL
	}

	return &ScreenCollector{
		screens:  screens,
		logger:   log,
		interval: interval,
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection
func (sc *ScreenCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(sc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sc.Collect()
			case <-sc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	sc.logger.Info("screen collector started",
		logger.Duration("interval", sc.interval),
		logger.Duration("idle_ttl", sc.idleTTL))
	return nil
}

// Stop stops the collector. Safe to call more than once.
func (sc *ScreenCollector) Stop() {
	sc.stopOnce.Do(func() {
		close(sc.stopCh)
	})
}

// Collect evicts idle screens once and returns how many were torn down.
func (sc *ScreenCollector) Collect() int {
	evicted := sc.screens.EvictIdle(sc.idleTTL)

	if evicted > 0 {
		sc.logger.Info("idle screens collected",
			logger.Int("evicted", evicted),
			logger.Int("remaining", sc.screens.Count()))
	} else {
		sc.logger.Debug("no idle screen to collect")
	}

	return evicted
}
