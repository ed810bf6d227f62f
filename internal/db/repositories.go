package db

import (
	"context"
	"fmt"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
	"gorm.io/gorm"
)

// Store is the relational storage.Store. It works on any GORM dialect whose
// schema was created by the embedded migrations.
type Store struct {
	database *gorm.DB
	users    *UserRepository
	fasts    *FastRepository
	meals    *MealRepository
	sessions *SessionRepository
}

var _ storage.Store = (*Store)(nil)

func NewStore(database *gorm.DB) *Store {
	return &Store{
		database: database,
		users:    NewUserRepository(database),
		fasts:    NewFastRepository(database),
		meals:    NewMealRepository(database),
		sessions: NewSessionRepository(database),
	}
}

func (store *Store) GetUser(ctx context.Context, id uint) (models.User, error) {
	return store.users.FindByID(ctx, id)
}

func (store *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return store.users.FindByUsername(ctx, username)
}

func (store *Store) CreateUser(ctx context.Context, user *models.User) error {
	return store.users.Create(ctx, user)
}

func (store *Store) UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error {
	return store.users.UpdatePasswordHash(ctx, userID, passwordHash)
}

func (store *Store) CreateFast(ctx context.Context, userID uint, startTime time.Time) (models.Fast, error) {
	return store.fasts.Create(ctx, userID, startTime)
}

func (store *Store) GetFast(ctx context.Context, id uint) (models.Fast, error) {
	return store.fasts.FindByID(ctx, id)
}

func (store *Store) EndFast(ctx context.Context, id uint, endTime time.Time, note *string) (models.Fast, error) {
	return store.fasts.End(ctx, id, endTime, note)
}

func (store *Store) GetFasts(ctx context.Context, userID uint) ([]models.Fast, error) {
	return store.fasts.ListByUser(ctx, userID)
}

func (store *Store) GetActiveFast(ctx context.Context, userID uint) (models.Fast, bool, error) {
	return store.fasts.FindActiveByUser(ctx, userID)
}

func (store *Store) CreateMeal(ctx context.Context, fastID uint, description string, mealTime time.Time) (models.Meal, error) {
	return store.meals.Create(ctx, fastID, description, mealTime)
}

func (store *Store) GetMealsForFast(ctx context.Context, fastID uint) ([]models.Meal, error) {
	return store.meals.ListByFast(ctx, fastID)
}

func (store *Store) Sessions() storage.SessionStore {
	return store.sessions
}

func (store *Store) Ping(ctx context.Context) error {
	sqlDB, err := store.database.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (store *Store) Close() error {
	sqlDB, err := store.database.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	return sqlDB.Close()
}
