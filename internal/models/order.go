package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Any status may move to any other.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in display order.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Order is a single purchased line: one product in one quantity.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"not null;index"`
	User            *User           `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ProductID       uint            `json:"product_id" gorm:"not null;index"`
	Product         *Product        `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text"`
	CheckoutID      *string         `json:"checkout_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderDetail is an order joined with the names of its buyer and product.
type OrderDetail struct {
	Order
	UserName     string          `json:"user_name,omitempty"`
	UserEmail    string          `json:"user_email,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
}

// CheckoutLine is one cart line submitted for checkout.
type CheckoutLine struct {
	ProductID     uint
	Quantity      int
	SelectedColor string
}

// PeriodTotals counts orders and sums their totals over one period.
type PeriodTotals struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// OrderStatistics aggregates orders for the current day, month and year.
type OrderStatistics struct {
	Today PeriodTotals `json:"today"`
	Month PeriodTotals `json:"month"`
	Year  PeriodTotals `json:"year"`
}
