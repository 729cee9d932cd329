package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fwstore/internal/events"
	"fwstore/internal/models"
	"fwstore/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at checkout.
const (
	PaymentCOD  = "cod"
	PaymentCard = "card"
)

var cardLast4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

// LegacyOrderInput is a single client-priced order line.
type LegacyOrderInput struct {
	ProductID       uint
	Quantity        int
	TotalAmount     decimal.Decimal
	ShippingAddress string
}

// CheckoutInput is a whole cart submitted at once. Either AddressID or
// ShippingAddress names the destination.
type CheckoutInput struct {
	Lines           []models.CheckoutLine
	AddressID       *uint
	ShippingAddress string
	PaymentMethod   string
	CardLast4       string
}

// CheckoutResult describes the orders created by one checkout.
type CheckoutResult struct {
	CheckoutID string          `json:"checkout_id"`
	Orders     []models.Order  `json:"orders"`
	Total      decimal.Decimal `json:"total"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	addressRepo repositories.AddressRepository
	publisher   events.Publisher
	loc         *time.Location
	now         func() time.Time
}

// NewOrderService creates a new OrderService. Statistics periods are computed in loc.
func NewOrderService(orderRepo repositories.OrderRepository, addressRepo repositories.AddressRepository, publisher events.Publisher, loc *time.Location) *OrderService {
	if loc == nil {
		loc = time.Local
	}
	return &OrderService{
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		publisher:   publisher,
		loc:         loc,
		now:         time.Now,
	}
}

// GetAllOrders retrieves every order with buyer and product details.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.OrderDetail, error) {
	return s.orderRepo.GetAll(ctx)
}

// GetOrder returns an order to its owner or to an admin. Anyone else gets
// ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID uint, isAdmin bool) (*models.OrderDetail, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return order, nil
}

// GetUserOrders returns the caller's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uint) ([]models.OrderDetail, error) {
	return s.orderRepo.GetByUser(ctx, userID)
}

// CreateOrder stores one order line as submitted, without touching stock.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in LegacyOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:          userID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		TotalAmount:     in.TotalAmount,
		Status:          models.OrderPending,
		ShippingAddress: in.ShippingAddress,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Checkout places every line of the cart or none of them. Prices come from
// the catalog, not from the client.
func (s *OrderService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (*CheckoutResult, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	suffix, err := paymentSuffix(in.PaymentMethod, in.CardLast4)
	if err != nil {
		return nil, err
	}

	var shipping string
	if in.AddressID != nil {
		address, err := s.addressRepo.GetByID(ctx, userID, *in.AddressID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrAddressNotFound, *in.AddressID)
			}
			return nil, err
		}
		shipping = address.ShippingText()
	} else {
		shipping = strings.TrimSpace(in.ShippingAddress)
	}
	if shipping == "" {
		return nil, ErrShippingRequired
	}

	checkoutID := uuid.NewString()
	orders, err := s.orderRepo.Checkout(ctx, userID, checkoutID, shipping+suffix, in.Lines)
	if err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	result := &CheckoutResult{CheckoutID: checkoutID, Orders: orders, Total: decimal.Zero}
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		result.Total = result.Total.Add(o.TotalAmount)
		ids = append(ids, o.ID)
	}

	publish(ctx, s.publisher, events.TypeCheckoutCompleted, checkoutID, events.CheckoutCompleted{
		CheckoutID:    checkoutID,
		UserID:        userID,
		OrderIDs:      ids,
		Total:         result.Total,
		PaymentMethod: strings.ToLower(in.PaymentMethod),
	})
	return result, nil
}

// paymentSuffix renders the masked payment note appended to the shipping text.
func paymentSuffix(method, last4 string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case PaymentCOD:
		return " | Payment: COD", nil
	case PaymentCard:
		if !cardLast4Pattern.MatchString(last4) {
			return "", fmt.Errorf("%w: card payments need the last 4 digits", ErrInvalidPayment)
		}
		return " | Payment: CARD ****" + last4, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, method)
	}
}

// UpdateOrderStatus moves an order to any of the known statuses.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	st := models.OrderStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	order, err := s.orderRepo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.TypeOrderStatusUpdated, strconv.FormatUint(uint64(order.ID), 10), events.OrderStatusUpdated{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
	})
	return order, nil
}

// Statistics counts and sums the orders of the current day, month and year.
func (s *OrderService) Statistics(ctx context.Context) (*models.OrderStatistics, error) {
	now := s.now().In(s.loc)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	orders, err := s.orderRepo.ListSince(ctx, yearStart)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStatistics{
		Today: models.PeriodTotals{Total: decimal.Zero},
		Month: models.PeriodTotals{Total: decimal.Zero},
		Year:  models.PeriodTotals{Total: decimal.Zero},
	}
	add := func(p *models.PeriodTotals, amount decimal.Decimal) {
		p.Count++
		p.Total = p.Total.Add(amount)
	}
	for _, o := range orders {
		created := o.CreatedAt.In(s.loc)
		if created.Before(yearStart) {
			continue
		}
		add(&stats.Year, o.TotalAmount)
		if !created.Before(monthStart) {
			add(&stats.Month, o.TotalAmount)
		}
		if !created.Before(dayStart) {
			add(&stats.Today, o.TotalAmount)
		}
	}
	return stats, nil
}
