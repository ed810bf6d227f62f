package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/fastlog/internal/blob"
	"github.com/terraincognita07/fastlog/internal/events"
	"github.com/terraincognita07/fastlog/internal/memstore"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/security"
	"github.com/terraincognita07/fastlog/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testHasher() security.PasswordHasher {
	return security.PasswordHasher{N: 1024, R: 8, P: 1, KeyLen: 64}
}

// manualClock advances by step on every read so consecutive writes get
// strictly increasing timestamps.
type manualClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

func newManualClock(start time.Time, step time.Duration) *manualClock {
	return &manualClock{current: start, step: step}
}

func (clock *manualClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	value := clock.current
	clock.current = clock.current.Add(clock.step)
	return value
}

func (clock *manualClock) Set(value time.Time) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = value
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (publisher *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.events = append(publisher.events, event)
	return nil
}

func (publisher *recordingPublisher) Close() error { return nil }

func (publisher *recordingPublisher) types() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	types := make([]string, 0, len(publisher.events))
	for _, event := range publisher.events {
		types = append(types, event.Type)
	}
	return types
}

type countingMetrics struct {
	mu          sync.Mutex
	started     int
	ended       int
	mealsLogged int
}

func (metrics *countingMetrics) FastStarted() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.started++
}

func (metrics *countingMetrics) FastEnded() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.ended++
}

func (metrics *countingMetrics) MealLogged() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.mealsLogged++
}

// countingSessions tracks how many sessions were ever created.
type countingSessions struct {
	storage.SessionStore
	mu      sync.Mutex
	created int
}

func (sessions *countingSessions) CreateSession(ctx context.Context, session models.Session) error {
	if err := sessions.SessionStore.CreateSession(ctx, session); err != nil {
		return err
	}
	sessions.mu.Lock()
	sessions.created++
	sessions.mu.Unlock()
	return nil
}

func (sessions *countingSessions) count() int {
	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	return sessions.created
}

type authFixture struct {
	store    *memstore.Store
	sessions *countingSessions
	blobs    *blob.LocalStore
	blobDir  string
	service  *AuthService
	clock    *manualClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := memstore.New()
	sessions := &countingSessions{SessionStore: store.Sessions()}
	blobDir := t.TempDir()
	blobs, err := blob.NewLocalStore(blobDir)
	if err != nil {
		t.Fatalf("new local blob store: %v", err)
	}

	clock := newManualClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 0)
	service := NewAuthService(store, sessions, blobs, AuthOptions{
		Hasher:     testHasher(),
		SessionTTL: 24 * time.Hour,
	})
	service.now = clock.Now

	return &authFixture{
		store:    store,
		sessions: sessions,
		blobs:    blobs,
		blobDir:  blobDir,
		service:  service,
		clock:    clock,
	}
}

type ledgerFixture struct {
	store     *memstore.Store
	fasts     *FastService
	meals     *MealService
	publisher *recordingPublisher
	metrics   *countingMetrics
	clock     *manualClock
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	store := memstore.New()
	publisher := &recordingPublisher{}
	metrics := &countingMetrics{}
	activity := NewActivityRecorder(publisher, metrics, nil)
	clock := newManualClock(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), time.Minute)

	fasts := NewFastService(store, activity)
	fasts.now = clock.Now
	meals := NewMealService(store, fasts, activity)
	meals.now = clock.Now

	return &ledgerFixture{
		store:     store,
		fasts:     fasts,
		meals:     meals,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
	}
}

func createLedgerUser(t *testing.T, store *memstore.Store, username string) models.User {
	t.Helper()

	user := models.User{Username: username, PasswordHash: "hash.salt", AvatarRef: "/uploads/a.png"}
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}
