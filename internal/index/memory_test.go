package index

import (
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

func TestNewBookmarkList(t *testing.T) {
	list := NewBookmarkList()
	if list == nil {
		t.Fatal("NewBookmarkList() returned nil")
	}
	if list.Count() != 0 {
		t.Errorf("NewBookmarkList() should start empty, got %v", list.Count())
	}
	if !list.GetLastRefresh().IsZero() {
		t.Error("NewBookmarkList() should never have been refreshed")
	}
}

func TestReplaceKeepsOrder(t *testing.T) {
	list := NewBookmarkList()

	bookmarks := []domain.Bookmark{
		{ID: "b", Title: "newest"},
		{ID: "a", Title: "oldest"},
	}
	list.Replace(bookmarks)

	got := list.Snapshot()
	if len(got) != 2 {
		t.Fatalf("Snapshot() = %v bookmarks, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("Snapshot() order = [%s %s], want [b a]", got[0].ID, got[1].ID)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	list := NewBookmarkList()

	list.Replace([]domain.Bookmark{{ID: "one"}})
	list.Replace([]domain.Bookmark{{ID: "two"}, {ID: "three"}})

	if list.Count() != 2 {
		t.Errorf("Replace() should overwrite, got %v bookmarks want 2", list.Count())
	}
	if _, ok := list.Get("one"); ok {
		t.Error("Replace() kept a bookmark from the previous list")
	}
	if bm, ok := list.Get("three"); !ok || bm.ID != "three" {
		t.Error("Get() did not find a replaced bookmark")
	}
	if list.Generation() != 2 {
		t.Errorf("Generation() = %v, want 2", list.Generation())
	}
}

func TestReplaceWithEmptyList(t *testing.T) {
	list := NewBookmarkList()
	list.Replace([]domain.Bookmark{{ID: "one"}})
	list.Replace(nil)

	if list.Count() != 0 {
		t.Errorf("Replace(nil) left %v bookmarks", list.Count())
	}
	if list.Snapshot() == nil {
		t.Error("Snapshot() should return an empty slice, not nil")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	list := NewBookmarkList()
	source := []domain.Bookmark{{ID: "one", Title: "original"}}
	list.Replace(source)

	// Mutating the input or a snapshot must not leak into the list.
	source[0].Title = "changed"
	snap := list.Snapshot()
	snap[0].Title = "changed too"

	if got := list.Snapshot()[0].Title; got != "original" {
		t.Errorf("list was mutated through a copy, title = %q", got)
	}
}

func TestWatchReceivesLatestGeneration(t *testing.T) {
	list := NewBookmarkList()
	ch, cancel := list.Watch()
	defer cancel()

	list.Replace([]domain.Bookmark{{ID: "one"}})
	list.Replace([]domain.Bookmark{{ID: "two"}})

	select {
	case gen := <-ch:
		if gen != 2 {
			t.Errorf("Watch() delivered generation %v, want 2", gen)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch() delivered nothing")
	}

	cancel()
	list.Replace(nil)
	select {
	case <-ch:
		t.Error("cancelled watcher still notified")
	default:
	}
}

func TestConcurrentAccess(t *testing.T) {
	list := NewBookmarkList()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = list.Snapshot()
		}()
	}

	// Single writer, as on a screen.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			list.Replace([]domain.Bookmark{{ID: "x"}})
		}
	}()

	wg.Wait()

	if list.Generation() != 100 {
		t.Errorf("Generation() = %v, want 100", list.Generation())
	}
}
