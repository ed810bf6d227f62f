// Package storage defines the persistence contract shared by the relational
// and in-memory backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would break a uniqueness rule:
	// a taken username, a second active fast, or ending a fast that is no
	// longer active.
	ErrConflict = errors.New("record conflict")
)

// Store is the full set of persistence operations used by the services.
type Store interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error

	// CreateFast inserts an active fast. It returns ErrConflict when the
	// user already has one.
	CreateFast(ctx context.Context, userID uint, startTime time.Time) (models.Fast, error)
	GetFast(ctx context.Context, id uint) (models.Fast, error)
	// EndFast closes an active fast. It returns ErrConflict when the fast
	// has already ended.
	EndFast(ctx context.Context, id uint, endTime time.Time, note *string) (models.Fast, error)
	// GetFasts lists a user's fasts, most recent start first.
	GetFasts(ctx context.Context, userID uint) ([]models.Fast, error)
	GetActiveFast(ctx context.Context, userID uint) (models.Fast, bool, error)

	// CreateMeal appends a meal to an active fast. It returns ErrConflict
	// when the fast has already ended.
	CreateMeal(ctx context.Context, fastID uint, description string, mealTime time.Time) (models.Meal, error)
	// GetMealsForFast lists meals in mealTime order, oldest first.
	GetMealsForFast(ctx context.Context, fastID uint) ([]models.Meal, error)

	Sessions() SessionStore
	Ping(ctx context.Context) error
	Close() error
}

// SessionStore persists server-side sessions keyed by hashed token.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID uint) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
