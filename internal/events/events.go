// Package events publishes domain events after successful writes.
package events

import (
	"context"
	"time"
)

const (
	TypeFastStarted = "fast.started"
	TypeFastEnded   = "fast.ended"
	TypeMealLogged  = "meal.logged"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"userId"`
	FastID     uint      `json:"fastId,omitempty"`
	MealID     uint      `json:"mealId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
