// Package events publishes domain events (post and comment lifecycle, follows) to
// Redis pub/sub and Kafka for downstream consumers.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"
)

// Event types.
const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	PostDeleted    = "post.deleted"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
)

// Event is the envelope written to every backend.
type Event struct {
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with the current UTC time.
func New(eventType string, payload map[string]any) Event {
	return Event{Type: eventType, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events to a backend.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

type multi []Publisher

// Multi fans an event out to every publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	return multi(publishers)
}

func (m multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes best-effort: failures are logged and counted, never returned.
func Emit(ctx context.Context, p Publisher, eventType string, payload map[string]any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, New(eventType, payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func record(backend, eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.EventsPublished.WithLabelValues(backend, eventType, outcome).Inc()
}
