// Package memstore is a process-local implementation of storage.Store used
// for development and tests. All state lives in the Store value.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

type Store struct {
	mu sync.RWMutex

	users    map[uint]models.User
	fasts    map[uint]models.Fast
	meals    map[uint]models.Meal
	sessions *SessionStore

	nextUserID uint
	nextFastID uint
	nextMealID uint
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[uint]models.User),
		fasts:    make(map[uint]models.Fast),
		meals:    make(map[uint]models.Meal),
		sessions: NewSessionStore(),
	}
}

func (store *Store) GetUser(_ context.Context, id uint) (models.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	user, ok := store.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (store *Store) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, user := range store.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (store *Store) CreateUser(_ context.Context, user *models.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if existing.Username == user.Username {
			return storage.ErrConflict
		}
	}

	store.nextUserID++
	user.ID = store.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	store.users[user.ID] = *user
	return nil
}

func (store *Store) UpdatePasswordHash(_ context.Context, userID uint, passwordHash string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	store.users[userID] = user
	return nil
}

func (store *Store) CreateFast(_ context.Context, userID uint, startTime time.Time) (models.Fast, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, fast := range store.fasts {
		if fast.UserID == userID && fast.IsActive {
			return models.Fast{}, storage.ErrConflict
		}
	}

	store.nextFastID++
	fast := models.Fast{
		ID:        store.nextFastID,
		UserID:    userID,
		StartTime: startTime,
		IsActive:  true,
	}
	store.fasts[fast.ID] = fast
	return fast, nil
}

func (store *Store) GetFast(_ context.Context, id uint) (models.Fast, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	fast, ok := store.fasts[id]
	if !ok {
		return models.Fast{}, storage.ErrNotFound
	}
	return fast, nil
}

func (store *Store) EndFast(_ context.Context, id uint, endTime time.Time, note *string) (models.Fast, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	fast, ok := store.fasts[id]
	if !ok {
		return models.Fast{}, storage.ErrNotFound
	}
	if !fast.IsActive {
		return models.Fast{}, storage.ErrConflict
	}

	ended := endTime
	fast.EndTime = &ended
	fast.IsActive = false
	fast.Note = copyString(note)
	store.fasts[id] = fast
	return fast, nil
}

func (store *Store) GetFasts(_ context.Context, userID uint) ([]models.Fast, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	fasts := make([]models.Fast, 0)
	for _, fast := range store.fasts {
		if fast.UserID == userID {
			fasts = append(fasts, fast)
		}
	}
	sort.Slice(fasts, func(i, j int) bool {
		if fasts[i].StartTime.Equal(fasts[j].StartTime) {
			return fasts[i].ID > fasts[j].ID
		}
		return fasts[i].StartTime.After(fasts[j].StartTime)
	})
	return fasts, nil
}

func (store *Store) GetActiveFast(_ context.Context, userID uint) (models.Fast, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, fast := range store.fasts {
		if fast.UserID == userID && fast.IsActive {
			return fast, true, nil
		}
	}
	return models.Fast{}, false, nil
}

func (store *Store) CreateMeal(_ context.Context, fastID uint, description string, mealTime time.Time) (models.Meal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	fast, ok := store.fasts[fastID]
	if !ok {
		return models.Meal{}, storage.ErrNotFound
	}
	if !fast.IsActive {
		return models.Meal{}, storage.ErrConflict
	}

	store.nextMealID++
	meal := models.Meal{
		ID:          store.nextMealID,
		FastID:      fastID,
		Description: description,
		MealTime:    mealTime,
	}
	store.meals[meal.ID] = meal
	return meal, nil
}

func (store *Store) GetMealsForFast(_ context.Context, fastID uint) ([]models.Meal, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	meals := make([]models.Meal, 0)
	for _, meal := range store.meals {
		if meal.FastID == fastID {
			meals = append(meals, meal)
		}
	}
	sort.Slice(meals, func(i, j int) bool {
		if meals[i].MealTime.Equal(meals[j].MealTime) {
			return meals[i].ID < meals[j].ID
		}
		return meals[i].MealTime.Before(meals[j].MealTime)
	})
	return meals, nil
}

func (store *Store) Sessions() storage.SessionStore {
	return store.sessions
}

func (store *Store) Ping(context.Context) error {
	return nil
}

func (store *Store) Close() error {
	return nil
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
