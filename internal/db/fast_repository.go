package db

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
	"gorm.io/gorm"
)

type FastRepository struct {
	database *gorm.DB
}

func NewFastRepository(database *gorm.DB) *FastRepository {
	return &FastRepository{database: database}
}

func (repo *FastRepository) Create(ctx context.Context, userID uint, startTime time.Time) (models.Fast, error) {
	fast := models.Fast{
		UserID:    userID,
		StartTime: startTime,
		IsActive:  true,
	}
	if err := repo.database.WithContext(ctx).Create(&fast).Error; err != nil {
		return models.Fast{}, translateError(err)
	}
	return fast, nil
}

func (repo *FastRepository) FindByID(ctx context.Context, fastID uint) (models.Fast, error) {
	var fast models.Fast
	if err := repo.database.WithContext(ctx).First(&fast, fastID).Error; err != nil {
		return models.Fast{}, translateError(err)
	}
	return fast, nil
}

// End closes the fast only while it is still active, so two concurrent ends
// cannot both succeed.
func (repo *FastRepository) End(ctx context.Context, fastID uint, endTime time.Time, note *string) (models.Fast, error) {
	var ended models.Fast
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Fast{}).
			Where("id = ? AND is_active = ?", fastID, true).
			Updates(map[string]any{
				"end_time":  endTime,
				"is_active": false,
				"note":      note,
			})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.First(&ended, fastID).Error; err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return storage.ErrConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Fast{}, err
		}
		return models.Fast{}, translateError(err)
	}
	return ended, nil
}

func (repo *FastRepository) ListByUser(ctx context.Context, userID uint) ([]models.Fast, error) {
	fasts := make([]models.Fast, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC, id DESC").
		Find(&fasts).Error; err != nil {
		return nil, translateError(err)
	}
	return fasts, nil
}

func (repo *FastRepository) FindActiveByUser(ctx context.Context, userID uint) (models.Fast, bool, error) {
	fast := models.Fast{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_time DESC, id DESC").
		Limit(1).
		Find(&fast)
	if result.Error != nil {
		return models.Fast{}, false, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Fast{}, false, nil
	}
	return fast, true, nil
}
