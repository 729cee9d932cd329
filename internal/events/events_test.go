package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"fwstore/internal/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDecode(t *testing.T) {
	e, err := events.New(events.TypeOrderStatusUpdated, "7", events.OrderStatusUpdated{OrderID: 7, UserID: 3, Status: "shipped"})
	require.NoError(t, err)
	body, err := json.Marshal(e)
	require.NoError(t, err)

	got, err := events.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, events.TypeOrderStatusUpdated, got.Type)
	assert.Equal(t, "7", got.Key)

	var p events.OrderStatusUpdated
	require.NoError(t, json.Unmarshal(got.Payload, &p))
	assert.Equal(t, "shipped", p.Status)

	_, err = events.Decode([]byte(`{"key":"x"}`))
	assert.Error(t, err)
	_, err = events.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNotifier_LogsResetToken(t *testing.T) {
	var buf bytes.Buffer
	n := events.NewNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	pub := events.NewDirectPublisher(n)

	e, err := events.New(events.TypePasswordResetRequested, "1", events.PasswordResetRequested{
		UserID: 1, Email: "jane@example.com", Token: "tok-123", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), e))

	assert.Contains(t, buf.String(), `"token":"tok-123"`)
	assert.Contains(t, buf.String(), `"email":"jane@example.com"`)
}

func TestNotifier_CheckoutAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	n := events.NewNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	e, err := events.New(events.TypeCheckoutCompleted, "c-1", events.CheckoutCompleted{
		CheckoutID: "c-1", UserID: 2, OrderIDs: []uint{4, 5}, Total: decimal.RequireFromString("12.5"), PaymentMethod: "cod",
	})
	require.NoError(t, err)
	require.NoError(t, n.Handle(context.Background(), e))
	assert.Contains(t, buf.String(), `"total":"12.50"`)

	assert.NoError(t, n.Handle(context.Background(), events.Event{Type: "something.else"}))
	assert.Error(t, n.Handle(context.Background(), events.Event{Type: events.TypeOrderStatusUpdated, Payload: []byte(`[`)}))
}
