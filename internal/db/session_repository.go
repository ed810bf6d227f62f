package db

import (
	"context"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
	"gorm.io/gorm"
)

type SessionRepository struct {
	database *gorm.DB
}

var _ storage.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{database: database}
}

func (repo *SessionRepository) CreateSession(ctx context.Context, session models.Session) error {
	return translateError(repo.database.WithContext(ctx).Create(&session).Error)
}

func (repo *SessionRepository) GetSession(ctx context.Context, id string) (models.Session, error) {
	var session models.Session
	if err := repo.database.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return models.Session{}, translateError(err)
	}
	return session, nil
}

func (repo *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	return translateError(repo.database.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error)
}

func (repo *SessionRepository) DeleteUserSessions(ctx context.Context, userID uint) error {
	return translateError(repo.database.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error)
}

func (repo *SessionRepository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := repo.database.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
