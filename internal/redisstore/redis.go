// Package redisstore keeps sessions in Redis so several app instances can
// share them.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

const defaultKeyPrefix = "fastlog"

// Open creates a client and pings it to validate the connection.
func Open(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("empty redis addr")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// SessionStore stores each session as a JSON value that Redis expires at
// ExpiresAt, plus a per-user set of session ids.
type SessionStore struct {
	client *redis.Client
	prefix string
}

var _ storage.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (store *SessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", store.prefix, id)
}

func (store *SessionStore) userKey(userID uint) string {
	return fmt.Sprintf("%s:user-sessions:%d", store.prefix, userID)
}

func (store *SessionStore) CreateSession(ctx context.Context, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = store.client.SetArgs(ctx, store.sessionKey(session.ID), data, redis.SetArgs{
		Mode:     "NX",
		ExpireAt: session.ExpiresAt,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	userKey := store.userKey(session.UserID)
	pipe := store.client.TxPipeline()
	pipe.SAdd(ctx, userKey, session.ID)
	pipe.ExpireAt(ctx, userKey, session.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (store *SessionStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	data, err := store.client.Get(ctx, store.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (store *SessionStore) DeleteSession(ctx context.Context, id string) error {
	session, err := store.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := store.client.TxPipeline()
	pipe.Del(ctx, store.sessionKey(id))
	pipe.SRem(ctx, store.userKey(session.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (store *SessionStore) DeleteUserSessions(ctx context.Context, userID uint) error {
	userKey := store.userKey(userID)
	ids, err := store.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, store.sessionKey(id))
	}
	keys = append(keys, userKey)
	if err := store.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// PurgeExpiredSessions is a no-op: Redis expires session keys on its own.
func (store *SessionStore) PurgeExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}
