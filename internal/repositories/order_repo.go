package repositories

import (
	"context"
	"time"

	"fwstore/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.OrderDetail, error)
	GetByID(ctx context.Context, id uint) (*models.OrderDetail, error)
	GetByUser(ctx context.Context, userID uint) ([]models.OrderDetail, error)
	Create(ctx context.Context, order *models.Order) error
	// Checkout reserves stock for every line and inserts one order per line,
	// all sharing checkoutID. Nothing is written unless every line succeeds.
	Checkout(ctx context.Context, userID uint, checkoutID, shipping string, lines []models.CheckoutLine) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
	ListSince(ctx context.Context, since time.Time) ([]models.Order, error)
}
