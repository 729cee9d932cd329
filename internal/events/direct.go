package events

import (
	"context"
	"log/slog"
)

// DirectPublisher hands events straight to a Handler in the calling goroutine.
// It backs EVENTS_BROKER=none.
type DirectPublisher struct {
	handler Handler
}

// NewDirectPublisher creates a DirectPublisher delivering to h.
func NewDirectPublisher(h Handler) *DirectPublisher {
	return &DirectPublisher{handler: h}
}

// Publish delivers the event to the handler before returning.
func (p *DirectPublisher) Publish(ctx context.Context, e Event) error {
	slog.Debug("event published", "type", e.Type, "key", e.Key, "broker", "none")
	return p.handler.Handle(ctx, e)
}

// Close is a no-op.
func (p *DirectPublisher) Close() error { return nil }
