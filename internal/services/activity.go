package services

import (
	"context"
	"log/slog"

	"github.com/terraincognita07/fastlog/internal/events"
)

type DomainMetrics interface {
	FastStarted()
	FastEnded()
	MealLogged()
}

// ActivityRecorder counts and publishes successful ledger writes. Publishing
// failures are logged and never reach the caller.
type ActivityRecorder struct {
	publisher events.Publisher
	metrics   DomainMetrics
	logger    *slog.Logger
}

func NewActivityRecorder(publisher events.Publisher, metrics DomainMetrics, logger *slog.Logger) *ActivityRecorder {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityRecorder{publisher: publisher, metrics: metrics, logger: logger}
}

func (recorder *ActivityRecorder) record(ctx context.Context, event events.Event) {
	if recorder == nil {
		return
	}

	if recorder.metrics != nil {
		switch event.Type {
		case events.TypeFastStarted:
			recorder.metrics.FastStarted()
		case events.TypeFastEnded:
			recorder.metrics.FastEnded()
		case events.TypeMealLogged:
			recorder.metrics.MealLogged()
		}
	}

	if err := recorder.publisher.Publish(ctx, event); err != nil {
		recorder.logger.Warn("publish event failed", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}
