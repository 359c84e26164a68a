package memory

import (
	"context"
	"sync"
	"time"

	redisstore "github.com/MrSnakeDoc/smartmark/internal/store/redis"
)

type sessionEntry struct {
	rec       redisstore.SessionRecord
	expiresAt time.Time
}

// Sessions keeps session records in process, for the memory backend.
// Expired records are dropped lazily on lookup.
type Sessions struct {
	mu      sync.Mutex
	records map[string]sessionEntry
	now     func() time.Time
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{
		records: make(map[string]sessionEntry),
		now:     time.Now,
	}
}

func (s *Sessions) SaveSession(_ context.Context, token string, rec redisstore.SessionRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[token] = sessionEntry{rec: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *Sessions) GetSession(_ context.Context, token string) (*redisstore.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[token]
	if !ok {
		return nil, redisstore.ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.records, token)
		return nil, redisstore.ErrSessionNotFound
	}
	rec := entry.rec
	return &rec, nil
}

func (s *Sessions) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, token)
	return nil
}
