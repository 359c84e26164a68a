package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a token has no live session record
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is what the identity provider keeps per session token
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps session records with a TTL
type SessionStore struct {
	*Store
}

// NewSessionStore creates a session store on top of store
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{Store: store}
}

// SaveSession stores rec under token for ttl
func (s *SessionStore) SaveSession(ctx context.Context, token string, rec SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads the record for token
func (s *SessionStore) GetSession(ctx context.Context, token string) (*SessionRecord, error) {
	data, err := s.client.Get(ctx, SessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

// DeleteSession removes the record for token
func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, SessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
