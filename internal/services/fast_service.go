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

type FastStore interface {
	CreateFast(ctx context.Context, userID uint, startTime time.Time) (models.Fast, error)
	GetFast(ctx context.Context, id uint) (models.Fast, error)
	EndFast(ctx context.Context, id uint, endTime time.Time, note *string) (models.Fast, error)
	GetFasts(ctx context.Context, userID uint) ([]models.Fast, error)
	GetActiveFast(ctx context.Context, userID uint) (models.Fast, bool, error)
}

// FastService is the fast ledger: at most one active fast per user, and a
// fast ends exactly once.
type FastService struct {
	fasts    FastStore
	activity *ActivityRecorder
	now      func() time.Time
}

func NewFastService(fasts FastStore, activity *ActivityRecorder) *FastService {
	return &FastService{fasts: fasts, activity: activity, now: time.Now}
}

func (service *FastService) StartFast(ctx context.Context, userID uint) (models.Fast, error) {
	if _, found, err := service.fasts.GetActiveFast(ctx, userID); err != nil {
		return models.Fast{}, fmt.Errorf("load active fast: %w", err)
	} else if found {
		return models.Fast{}, ErrAlreadyActive
	}

	fast, err := service.fasts.CreateFast(ctx, userID, service.now().UTC())
	if errors.Is(err, storage.ErrConflict) {
		return models.Fast{}, ErrAlreadyActive
	}
	if err != nil {
		return models.Fast{}, fmt.Errorf("create fast: %w", err)
	}

	service.activity.record(ctx, events.Event{
		Type:       events.TypeFastStarted,
		UserID:     userID,
		FastID:     fast.ID,
		OccurredAt: fast.StartTime,
	})
	return fast, nil
}

func (service *FastService) EndFast(ctx context.Context, fastID uint, callerID uint, note *string) (models.Fast, error) {
	fast, err := service.GetOwnedFast(ctx, fastID, callerID)
	if err != nil {
		return models.Fast{}, err
	}
	if !fast.IsActive {
		return models.Fast{}, newValidationError(ErrFastEnded, "fastId", ErrFastEnded.Error())
	}

	ended, err := service.fasts.EndFast(ctx, fastID, service.now().UTC(), normalizeNote(note))
	switch {
	case errors.Is(err, storage.ErrConflict):
		return models.Fast{}, newValidationError(ErrFastEnded, "fastId", ErrFastEnded.Error())
	case errors.Is(err, storage.ErrNotFound):
		return models.Fast{}, ErrFastNotFound
	case err != nil:
		return models.Fast{}, fmt.Errorf("end fast: %w", err)
	}

	occurredAt := service.now().UTC()
	if ended.EndTime != nil {
		occurredAt = *ended.EndTime
	}
	service.activity.record(ctx, events.Event{
		Type:       events.TypeFastEnded,
		UserID:     callerID,
		FastID:     ended.ID,
		OccurredAt: occurredAt,
	})
	return ended, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ListFasts returns the user's fasts, most recent start first.
func (service *FastService) ListFasts(ctx context.Context, userID uint) ([]models.Fast, error) {
	fasts, err := service.fasts.GetFasts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list fasts: %w", err)
	}
	return fasts, nil
}

// GetActiveFast returns nil when the user is not fasting.
func (service *FastService) GetActiveFast(ctx context.Context, userID uint) (*models.Fast, error) {
	fast, found, err := service.fasts.GetActiveFast(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active fast: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &fast, nil
}

func (service *FastService) GetOwnedFast(ctx context.Context, fastID uint, callerID uint) (models.Fast, error) {
	fast, err := service.fasts.GetFast(ctx, fastID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Fast{}, ErrFastNotFound
	}
	if err != nil {
		return models.Fast{}, fmt.Errorf("load fast: %w", err)
	}
	if !fast.OwnedBy(callerID) {
		return models.Fast{}, ErrNotOwner
	}
	return fast, nil
}
