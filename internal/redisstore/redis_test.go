package redisstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := Open(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewSessionStore(client, fmt.Sprintf("fastlog-test-%d", time.Now().UnixNano()))
}

func TestOpenRequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "", "", 0)
	assert.Error(t, err)
}

func TestSessionStoreKeys(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(nil, "")
	assert.Equal(t, "fastlog:session:abc", store.sessionKey("abc"))
	assert.Equal(t, "fastlog:user-sessions:7", store.userKey(7))
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first := models.Session{ID: "first", UserID: 7, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	second := models.Session{ID: "second", UserID: 7, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, store.CreateSession(ctx, first))
	require.NoError(t, store.CreateSession(ctx, second))
	assert.ErrorIs(t, store.CreateSession(ctx, first), storage.ErrConflict)

	loaded, err := store.GetSession(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, uint(7), loaded.UserID)
	assert.True(t, loaded.ExpiresAt.Equal(first.ExpiresAt))

	require.NoError(t, store.DeleteSession(ctx, "first"))
	_, err = store.GetSession(ctx, "first")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, store.DeleteSession(ctx, "first"))

	require.NoError(t, store.DeleteUserSessions(ctx, 7))
	_, err = store.GetSession(ctx, "second")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	purged, err := store.PurgeExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
