package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

var _ storage.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session)}
}

func (store *SessionStore) CreateSession(_ context.Context, session models.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.sessions[session.ID]; exists {
		return storage.ErrConflict
	}
	store.sessions[session.ID] = session
	return nil
}

func (store *SessionStore) GetSession(_ context.Context, id string) (models.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[id]
	if !ok {
		return models.Session{}, storage.ErrNotFound
	}
	return session, nil
}

func (store *SessionStore) DeleteSession(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.sessions, id)
	return nil
}

func (store *SessionStore) DeleteUserSessions(_ context.Context, userID uint) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, session := range store.sessions {
		if session.UserID == userID {
			delete(store.sessions, id)
		}
	}
	return nil
}

func (store *SessionStore) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var purged int64
	for id, session := range store.sessions {
		if session.Expired(now) {
			delete(store.sessions, id)
			purged++
		}
	}
	return purged, nil
}
