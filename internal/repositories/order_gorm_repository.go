package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fwstore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderDetailColumns = "orders.*, users.name AS user_name, users.email AS user_email, " +
	"products.name AS product_name, products.price AS product_price"

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) details(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders").
		Select(orderDetailColumns).
		Joins("JOIN users ON users.id = orders.user_id").
		Joins("JOIN products ON products.id = orders.product_id")
}

// GetAll returns every order joined with its buyer and product, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.OrderDetail, error) {
	orders := []models.OrderDetail{}
	if err := r.details(ctx).Order("orders.created_at DESC, orders.id DESC").Scan(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID returns one joined order.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.OrderDetail, error) {
	orders := []models.OrderDetail{}
	if err := r.details(ctx).Where("orders.id = ?", id).Limit(1).Scan(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return &orders[0], nil
}

// GetByUser returns the orders placed by one user, newest first.
func (r *GORMOrderRepository) GetByUser(ctx context.Context, userID uint) ([]models.OrderDetail, error) {
	orders := []models.OrderDetail{}
	err := r.details(ctx).
		Where("orders.user_id = ?", userID).
		Order("orders.created_at DESC, orders.id DESC").
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// Create inserts a single order line as given.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("order references missing user %d or product %d: %w", order.UserID, order.ProductID, ErrNotFound)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Checkout places every line inside one transaction. Products are read with a
// row lock so concurrent checkouts cannot oversell.
func (r *GORMOrderRepository) Checkout(ctx context.Context, userID uint, checkoutID, shipping string, lines []models.CheckoutLine) ([]models.Order, error) {
	created := make([]models.Order, 0, len(lines))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, line := range lines {
			var product models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, line.ProductID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("line %d: product with ID %d: %w", i+1, line.ProductID, ErrNotFound)
				}
				return fmt.Errorf("line %d: failed to load product %d: %w", i+1, line.ProductID, err)
			}
			if err := product.Reserve(line.Quantity, line.SelectedColor); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			err = tx.Model(&product).Select("stock", "colors").Updates(&product).Error
			if err != nil {
				return fmt.Errorf("line %d: failed to update stock of product %d: %w", i+1, product.ID, err)
			}

			id := checkoutID
			order := models.Order{
				UserID:          userID,
				ProductID:       product.ID,
				Quantity:        line.Quantity,
				TotalAmount:     product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
				Status:          models.OrderPending,
				ShippingAddress: shipping,
				CheckoutID:      &id,
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("line %d: failed to create order: %w", i+1, err)
			}
			created = append(created, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus sets the status of an existing order and returns it.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get order by ID %d: %w", id, err)
		}
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update status of order %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListSince returns the orders created at or after since.
func (r *GORMOrderRepository) ListSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Where("created_at >= ?", since.UTC()).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders since %s: %w", since.Format(time.RFC3339), err)
	}
	return orders, nil
}
