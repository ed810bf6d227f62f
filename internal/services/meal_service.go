package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/fastlog/internal/events"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/storage"
)

type MealStore interface {
	CreateMeal(ctx context.Context, fastID uint, description string, mealTime time.Time) (models.Meal, error)
	GetMealsForFast(ctx context.Context, fastID uint) ([]models.Meal, error)
}

// MealService appends meals to fasts the caller owns.
type MealService struct {
	meals    MealStore
	fasts    *FastService
	activity *ActivityRecorder
	now      func() time.Time
}

func NewMealService(meals MealStore, fasts *FastService, activity *ActivityRecorder) *MealService {
	return &MealService{meals: meals, fasts: fasts, activity: activity, now: time.Now}
}

func (service *MealService) LogMeal(ctx context.Context, fastID uint, callerID uint, description string) (models.Meal, error) {
	fast, err := service.fasts.GetOwnedFast(ctx, fastID, callerID)
	if err != nil {
		return models.Meal{}, err
	}

	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return models.Meal{}, newValidationError(ErrEmptyDescription, "description", ErrEmptyDescription.Error())
	}
	if !fast.IsActive {
		return models.Meal{}, newValidationError(ErrFastNotActive, "fastId", ErrFastNotActive.Error())
	}

	meal, err := service.meals.CreateMeal(ctx, fast.ID, trimmed, service.now().UTC())
	switch {
	case errors.Is(err, storage.ErrConflict):
		return models.Meal{}, newValidationError(ErrFastNotActive, "fastId", ErrFastNotActive.Error())
	case errors.Is(err, storage.ErrNotFound):
		return models.Meal{}, ErrFastNotFound
	case err != nil:
		return models.Meal{}, fmt.Errorf("create meal: %w", err)
	}

	service.activity.record(ctx, events.Event{
		Type:       events.TypeMealLogged,
		UserID:     callerID,
		FastID:     fast.ID,
		MealID:     meal.ID,
		OccurredAt: meal.MealTime,
	})
	return meal, nil
}

// ListMeals returns the fast's meals, oldest first.
func (service *MealService) ListMeals(ctx context.Context, fastID uint, callerID uint) ([]models.Meal, error) {
	if _, err := service.fasts.GetOwnedFast(ctx, fastID, callerID); err != nil {
		return nil, err
	}

	meals, err := service.meals.GetMealsForFast(ctx, fastID)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}
