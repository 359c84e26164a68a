package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

type fakeScreens struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      time.Time
	calls    int
}

func (f *fakeScreens) EvictIdle(idle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	evicted := 0
	for token, seen := range f.lastSeen {
		if f.now.Sub(seen) > idle {
			delete(f.lastSeen, token)
			evicted++
		}
	}
	return evicted
}

func (f *fakeScreens) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lastSeen)
}

func (f *fakeScreens) evictCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScreenCollector_Collect(t *testing.T) {
	now := time.Now()
	screens := &fakeScreens{
		now: now,
		lastSeen: map[string]time.Time{
			"active":  now.Add(-time.Minute),
			"idle":    now.Add(-2 * time.Hour),
			"dormant": now.Add(-48 * time.Hour),
		},
	}

	sc := NewScreenCollector(screens, logger.New("error", false), time.Hour, 30*time.Minute)

	if got := sc.Collect(); got != 2 {
		t.Errorf("Expected 2 screens evicted, got %d", got)
	}
	if got := screens.Count(); got != 1 {
		t.Errorf("Expected 1 screen left, got %d", got)
	}
	if _, ok := screens.lastSeen["active"]; !ok {
		t.Error("Active screen was incorrectly evicted")
	}

	if got := sc.Collect(); got != 0 {
		t.Errorf("Expected nothing left to evict, got %d", got)
	}
}

func TestScreenCollector_Defaults(t *testing.T) {
	sc := NewScreenCollector(&fakeScreens{}, logger.Nop(), 0, 0)

	if sc.interval != DefaultScreenGCInterval {
		t.Errorf("Expected interval %v, got %v", DefaultScreenGCInterval, sc.interval)
	}
	if sc.idleTTL != DefaultScreenIdleTTL {
		t.Errorf("Expected idle TTL %v, got %v", DefaultScreenIdleTTL, sc.idleTTL)
	}
}

func TestScreenCollector_StartStop(t *testing.T) {
	screens := &fakeScreens{now: time.Now(), lastSeen: map[string]time.Time{}}
	sc := NewScreenCollector(screens, logger.Nop(), 5*time.Millisecond, time.Minute)

	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for screens.evictCalls() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("collector never ticked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sc.Stop()
	sc.Stop()
}
