package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	first := models.User{Username: "alice"}
	if err := store.CreateUser(ctx, &first); err != nil {
		t.Fatalf("create first user: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected created user to receive an id")
	}

	second := models.User{Username: "alice"}
	if err := store.CreateUser(ctx, &second); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	found, err := store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user by username: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("expected user %d, got %d", first.ID, found.ID)
	}

	if _, err := store.GetUser(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestCreateFastAllowsSingleActiveFastUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for index := 0; index < workers; index++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateFast(ctx, 7, start)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, storage.ErrConflict):
		default:
			t.Fatalf("unexpected create fast error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one active fast, got %d", created)
	}

	fasts, err := store.GetFasts(ctx, 7)
	if err != nil {
		t.Fatalf("get fasts: %v", err)
	}
	if len(fasts) != 1 {
		t.Fatalf("expected one stored fast, got %d", len(fasts))
	}
}

func TestEndFastOnlyOnce(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	fast, err := store.CreateFast(ctx, 1, start)
	if err != nil {
		t.Fatalf("create fast: %v", err)
	}

	note := "felt good"
	ended, err := store.EndFast(ctx, fast.ID, start.Add(16*time.Hour), &note)
	if err != nil {
		t.Fatalf("end fast: %v", err)
	}
	if ended.IsActive || ended.EndTime == nil || ended.Note == nil || *ended.Note != note {
		t.Fatalf("unexpected ended fast: %+v", ended)
	}

	note = "mutated after the call"
	stored, err := store.GetFast(ctx, fast.ID)
	if err != nil {
		t.Fatalf("get fast: %v", err)
	}
	if *stored.Note != "felt good" {
		t.Fatalf("expected stored note to be copied, got %q", *stored.Note)
	}

	if _, err := store.EndFast(ctx, fast.ID, start.Add(17*time.Hour), nil); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict when ending twice, got %v", err)
	}
	if _, err := store.EndFast(ctx, 404, start, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown fast, got %v", err)
	}

	if _, ok, err := store.GetActiveFast(ctx, 1); err != nil || ok {
		t.Fatalf("expected no active fast after end, ok=%v err=%v", ok, err)
	}
	if _, err := store.CreateFast(ctx, 1, start.Add(18*time.Hour)); err != nil {
		t.Fatalf("expected new fast after ending previous one, got %v", err)
	}
}

func TestGetFastsOrdersMostRecentFirst(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	var ids []uint
	for day := 0; day < 3; day++ {
		fast, err := store.CreateFast(ctx, 3, base.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("create fast %d: %v", day, err)
		}
		if _, err := store.EndFast(ctx, fast.ID, base.AddDate(0, 0, day).Add(time.Hour), nil); err != nil {
			t.Fatalf("end fast %d: %v", day, err)
		}
		ids = append(ids, fast.ID)
	}

	fasts, err := store.GetFasts(ctx, 3)
	if err != nil {
		t.Fatalf("get fasts: %v", err)
	}
	if len(fasts) != 3 {
		t.Fatalf("expected 3 fasts, got %d", len(fasts))
	}
	for index, fast := range fasts {
		want := ids[len(ids)-1-index]
		if fast.ID != want {
			t.Fatalf("fasts[%d].ID = %d, want %d", index, fast.ID, want)
		}
	}
}

func TestGetMealsForFastOrdersByMealTime(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	fast, err := store.CreateFast(ctx, 1, base)
	if err != nil {
		t.Fatalf("create fast: %v", err)
	}

	inserts := []struct {
		description string
		offset      time.Duration
	}{
		{description: "salad", offset: 2 * time.Hour},
		{description: "eggs", offset: time.Hour},
		{description: "tea", offset: 2 * time.Hour},
	}
	for _, insert := range inserts {
		if _, err := store.CreateMeal(ctx, fast.ID, insert.description, base.Add(insert.offset)); err != nil {
			t.Fatalf("create meal %q: %v", insert.description, err)
		}
	}

	meals, err := store.GetMealsForFast(ctx, fast.ID)
	if err != nil {
		t.Fatalf("get meals: %v", err)
	}
	got := make([]string, 0, len(meals))
	for _, meal := range meals {
		got = append(got, meal.Description)
	}
	want := []string{"eggs", "salad", "tea"}
	if len(got) != len(want) {
		t.Fatalf("meals = %v, want %v", got, want)
	}
	for index := range want {
		if got[index] != want[index] {
			t.Fatalf("meals = %v, want %v", got, want)
		}
	}

	if _, err := store.CreateMeal(ctx, 999, "ghost", base); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for meal on unknown fast, got %v", err)
	}

	if _, err := store.EndFast(ctx, fast.ID, base.Add(3*time.Hour), nil); err != nil {
		t.Fatalf("end fast: %v", err)
	}
	if _, err := store.CreateMeal(ctx, fast.ID, "late snack", base.Add(4*time.Hour)); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for meal on ended fast, got %v", err)
	}
	if meals, _ := store.GetMealsForFast(ctx, fast.ID); len(meals) != len(want) {
		t.Fatalf("expected meal log unchanged at %d entries, got %d", len(want), len(meals))
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	t.Parallel()

	sessions := NewSessionStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	live := models.Session{ID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := models.Session{ID: "stale", UserID: 1, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	other := models.Session{ID: "other", UserID: 2, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	for _, session := range []models.Session{live, stale, other} {
		if err := sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("create session %s: %v", session.ID, err)
		}
	}
	if err := sessions.CreateSession(ctx, live); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate session id, got %v", err)
	}

	purged, err := sessions.PurgeExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged session, got %d", purged)
	}
	if _, err := sessions.GetSession(ctx, "stale"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected stale session to be purged, got %v", err)
	}

	if err := sessions.DeleteUserSessions(ctx, 1); err != nil {
		t.Fatalf("delete user sessions: %v", err)
	}
	if _, err := sessions.GetSession(ctx, "live"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected user 1 sessions to be deleted, got %v", err)
	}
	if _, err := sessions.GetSession(ctx, "other"); err != nil {
		t.Fatalf("expected user 2 session to survive, got %v", err)
	}
}
