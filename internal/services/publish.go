package services

import (
	"context"
	"log/slog"

	"fwstore/internal/events"
)

// publish emits an event after the state change it describes has been stored.
// Failures are logged and never undo the change.
func publish(ctx context.Context, p events.Publisher, eventType, key string, payload interface{}) {
	if p == nil {
		slog.DebugContext(ctx, "no event publisher configured", "type", eventType)
		return
	}
	e, err := events.New(eventType, key, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build event", "type", eventType, "error", err)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", eventType, "key", key, "error", err)
		return
	}
	slog.DebugContext(ctx, "event published", "type", eventType, "key", key)
}
