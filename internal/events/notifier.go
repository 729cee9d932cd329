package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Notifier is the worker side of the event stream. Mail delivery is out of
// scope, so notifications are written to the log.
type Notifier struct {
	log *slog.Logger
}

// NewNotifier creates a Notifier writing to logger, or slog.Default when nil.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{log: logger.With("component", "notifier")}
}

// Handle logs a notification for the known event types and ignores the rest.
func (n *Notifier) Handle(ctx context.Context, e Event) error {
	switch e.Type {
	case TypePasswordResetRequested:
		var p PasswordResetRequested
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("%s: %w", e.Type, err)
		}
		n.log.InfoContext(ctx, "password reset email",
			"user_id", p.UserID, "email", p.Email, "token", p.Token, "expires_at", p.ExpiresAt)
	case TypeCheckoutCompleted:
		var p CheckoutCompleted
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("%s: %w", e.Type, err)
		}
		n.log.InfoContext(ctx, "order confirmation",
			"checkout_id", p.CheckoutID, "user_id", p.UserID, "orders", p.OrderIDs,
			"total", p.Total.StringFixed(2), "payment", p.PaymentMethod)
	case TypeOrderStatusUpdated:
		var p OrderStatusUpdated
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("%s: %w", e.Type, err)
		}
		n.log.InfoContext(ctx, "order status notification",
			"order_id", p.OrderID, "user_id", p.UserID, "status", p.Status)
	default:
		n.log.DebugContext(ctx, "ignoring event", "type", e.Type)
	}
	return nil
}
