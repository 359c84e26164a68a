package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	redisstore "github.com/MrSnakeDoc/smartmark/internal/store/redis"
)

func TestSessionsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessions()
	s.now = func() time.Time { return now }

	rec := redisstore.SessionRecord{UserID: "alice", Email: "alice@example.com", Provider: "google"}
	require.NoError(t, s.SaveSession(ctx, "tok", rec, time.Hour))

	got, err := s.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "alice", got.UserID)

	now = now.Add(time.Hour)
	_, err = s.GetSession(ctx, "tok")
	require.ErrorIs(t, err, redisstore.ErrSessionNotFound)
}

func TestSessionsDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()

	require.NoError(t, s.SaveSession(ctx, "tok", redisstore.SessionRecord{UserID: "alice"}, time.Hour))
	require.NoError(t, s.DeleteSession(ctx, "tok"))
	require.NoError(t, s.DeleteSession(ctx, "tok"))

	_, err := s.GetSession(ctx, "tok")
	require.ErrorIs(t, err, redisstore.ErrSessionNotFound)
}
