// Package events publishes domain events and runs the worker that reacts to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeCheckoutCompleted      = "checkout.completed"
	TypeOrderStatusUpdated     = "order.status_updated"
	TypePasswordResetRequested = "password.reset_requested"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// CheckoutCompleted is published after a checkout transaction commits.
type CheckoutCompleted struct {
	CheckoutID    string          `json:"checkout_id"`
	UserID        uint            `json:"user_id"`
	OrderIDs      []uint          `json:"order_ids"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
}

// OrderStatusUpdated is published when an admin changes an order's status.
type OrderStatusUpdated struct {
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	Status  string `json:"status"`
}

// PasswordResetRequested carries the raw reset token to the notifier.
type PasswordResetRequested struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New wraps payload in an Event stamped with the current time.
func New(eventType, key string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: raw}, nil
}

// Decode parses a broker message body.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}

// Publisher sends events to wherever the worker will pick them up.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handler reacts to one event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}
