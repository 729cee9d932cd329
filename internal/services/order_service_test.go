package services_test

import (
	"context"
	"testing"
	"time"

	"fwstore/internal/events"
	"fwstore/internal/models"
	"fwstore/internal/repositories"
	"fwstore/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_GetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	svc := services.NewOrderService(orders, new(MockAddressRepository), nil, time.UTC)

	detail := &models.OrderDetail{Order: models.Order{ID: 3, UserID: 10}}
	orders.On("GetByID", ctx, uint(3)).Return(detail, nil).Times(3)

	got, err := svc.GetOrder(ctx, 3, 10, false)
	require.NoError(t, err)
	assert.Equal(t, detail, got)

	_, err = svc.GetOrder(ctx, 3, 11, false)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.GetOrder(ctx, 3, 11, true)
	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestOrderService_CheckoutWithSavedAddress(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	addresses := new(MockAddressRepository)
	pub := new(MockPublisher)
	svc := services.NewOrderService(orders, addresses, pub, time.UTC)

	addressID := uint(8)
	addresses.On("GetByID", ctx, uint(10), addressID).Return(&models.Address{
		FullName: "Jane Doe", Line1: "1 High St", City: "London", PostalCode: "N1 1AA", Country: "UK", Phone: "0712345678",
	}, nil).Once()

	lines := []models.CheckoutLine{{ProductID: 1, Quantity: 2, SelectedColor: "Red"}, {ProductID: 2, Quantity: 1}}
	wantShipping := "Jane Doe, 1 High St, London N1 1AA, UK, Phone: 0712345678 | Payment: CARD ****4242"
	orders.On("Checkout", ctx, uint(10), mock.AnythingOfType("string"), wantShipping, lines).Return([]models.Order{
		{ID: 1, TotalAmount: decimal.NewFromInt(400)},
		{ID: 2, TotalAmount: decimal.RequireFromString("39.99")},
	}, nil).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool { return e.Type == events.TypeCheckoutCompleted })).Return(nil).Once()

	result, err := svc.Checkout(ctx, 10, services.CheckoutInput{
		Lines: lines, AddressID: &addressID, PaymentMethod: "card", CardLast4: "4242",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CheckoutID)
	assert.Len(t, result.Orders, 2)
	assert.True(t, decimal.RequireFromString("439.99").Equal(result.Total))
	orders.AssertExpectations(t)
	addresses.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOrderService_CheckoutRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	addresses := new(MockAddressRepository)
	svc := services.NewOrderService(orders, addresses, nil, time.UTC)
	line := []models.CheckoutLine{{ProductID: 1, Quantity: 1}}

	_, err := svc.Checkout(ctx, 10, services.CheckoutInput{PaymentMethod: "cod", ShippingAddress: "x"})
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	_, err = svc.Checkout(ctx, 10, services.CheckoutInput{Lines: line, PaymentMethod: "bitcoin", ShippingAddress: "x"})
	assert.ErrorIs(t, err, services.ErrInvalidPayment)

	_, err = svc.Checkout(ctx, 10, services.CheckoutInput{Lines: line, PaymentMethod: "card", CardLast4: "12", ShippingAddress: "x"})
	assert.ErrorIs(t, err, services.ErrInvalidPayment)

	_, err = svc.Checkout(ctx, 10, services.CheckoutInput{Lines: line, PaymentMethod: "cod", ShippingAddress: "   "})
	assert.ErrorIs(t, err, services.ErrShippingRequired)

	other := uint(99)
	addresses.On("GetByID", ctx, uint(10), other).Return(nil, repositories.ErrNotFound).Once()
	_, err = svc.Checkout(ctx, 10, services.CheckoutInput{Lines: line, PaymentMethod: "cod", AddressID: &other})
	assert.ErrorIs(t, err, services.ErrAddressNotFound)

	orders.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CheckoutStockFailure(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	pub := new(MockPublisher)
	svc := services.NewOrderService(orders, new(MockAddressRepository), pub, time.UTC)

	orders.On("Checkout", ctx, uint(10), mock.Anything, "1 High St | Payment: COD", mock.Anything).
		Return(nil, models.ErrInsufficientStock).Once()

	_, err := svc.Checkout(ctx, 10, services.CheckoutInput{
		Lines: []models.CheckoutLine{{ProductID: 1, Quantity: 50}}, PaymentMethod: "COD", ShippingAddress: " 1 High St ",
	})
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	pub := new(MockPublisher)
	svc := services.NewOrderService(orders, new(MockAddressRepository), pub, time.UTC)

	_, err := svc.UpdateOrderStatus(ctx, 1, "lost")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	orders.On("UpdateStatus", ctx, uint(99), models.OrderShipped).Return(nil, repositories.ErrNotFound).Once()
	_, err = svc.UpdateOrderStatus(ctx, 99, "shipped")
	assert.ErrorIs(t, err, services.ErrNotFound)

	orders.On("UpdateStatus", ctx, uint(1), models.OrderCancelled).
		Return(&models.Order{ID: 1, UserID: 10, Status: models.OrderCancelled}, nil).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeOrderStatusUpdated && e.Key == "1"
	})).Return(nil).Once()
	order, err := svc.UpdateOrderStatus(ctx, 1, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	orders.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOrderService_Statistics(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	svc := services.NewOrderService(orders, new(MockAddressRepository), nil, time.UTC)

	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	orders.On("ListSince", ctx, yearStart).Return([]models.Order{
		{TotalAmount: decimal.NewFromInt(100), CreatedAt: now},
		{TotalAmount: decimal.NewFromInt(50), CreatedAt: monthStart},
		{TotalAmount: decimal.NewFromInt(25), CreatedAt: yearStart},
	}, nil).Once()

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Year.Count)
	assert.True(t, decimal.NewFromInt(175).Equal(stats.Year.Total))
	assert.GreaterOrEqual(t, stats.Month.Count, int64(2))
	assert.GreaterOrEqual(t, stats.Today.Count, int64(1))
	assert.True(t, stats.Today.Total.GreaterThanOrEqual(decimal.NewFromInt(100)))
	orders.AssertExpectations(t)
}
