package db

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
	"gorm.io/gorm"
)

type MealRepository struct {
	database *gorm.DB
}

func NewMealRepository(database *gorm.DB) *MealRepository {
	return &MealRepository{database: database}
}

// Create appends a meal only while the parent fast is active. The insert and
// the activity check are one statement, so a fast ended concurrently cannot
// receive the meal.
func (repo *MealRepository) Create(ctx context.Context, fastID uint, description string, mealTime time.Time) (models.Meal, error) {
	meal := models.Meal{
		FastID:      fastID,
		Description: description,
		MealTime:    mealTime,
	}
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Raw(
			`INSERT INTO meals (fast_id, description, meal_time)
SELECT id, ?, ? FROM fasts WHERE id = ? AND is_active = ?
RETURNING id`,
			description, mealTime, fastID, true,
		).Scan(&meal.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var parent models.Fast
		if err := tx.Select("id").First(&parent, fastID).Error; err != nil {
			return err
		}
		return storage.ErrConflict
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Meal{}, err
		}
		return models.Meal{}, translateError(err)
	}
	return meal, nil
}

func (repo *MealRepository) ListByFast(ctx context.Context, fastID uint) ([]models.Meal, error) {
	meals := make([]models.Meal, 0)
	if err := repo.database.WithContext(ctx).
		Where("fast_id = ?", fastID).
		Order("meal_time ASC, id ASC").
		Find(&meals).Error; err != nil {
		return nil, translateError(err)
	}
	return meals, nil
}
