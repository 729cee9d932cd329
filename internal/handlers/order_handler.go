package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"fwstore/internal/httpx"
	"fwstore/internal/middleware"
	"fwstore/internal/models"
	"fwstore/internal/services"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const invalidStatusMessage = "Invalid status. Must be one of: pending, processing, shipped, delivered, cancelled"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	admins   middleware.AdminChecker
	validate *validation.Validator
}

// NewOrderHandler creates a new OrderHandler. admins decides who may read
// orders placed by other users.
func NewOrderHandler(service *services.OrderService, admins middleware.AdminChecker, v *validation.Validator) *OrderHandler {
	return &OrderHandler{
		service:  service,
		admins:   admins,
		validate: v,
	}
}

// RegisterRoutes registers the order routes with the Fiber app. Every order
// route needs a token.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, g Guards) {
	orderRoutes := router.Group("/orders", g.Auth)
	orderRoutes.Get("/", g.Admin, h.HandleGetOrders)
	orderRoutes.Get("/statistics", g.Admin, h.HandleGetStatistics)
	orderRoutes.Get("/user/orders", h.HandleGetUserOrders)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/status", g.Admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves all orders for the admin dashboard.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return err
	}
	return httpx.OK(c, "Orders retrieved successfully", orders)
}

// HandleGetOrderByID retrieves a single order. Only its owner and admins can see it.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	isAdmin, err := h.admins.IsAdmin(c.UserContext(), userID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return err
	}

	order, err := h.service.GetOrder(c.UserContext(), id, userID, isAdmin)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Order not found")
		}
		return err
	}
	return httpx.OK(c, "Order retrieved successfully", order)
}

// HandleGetUserOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetUserOrders(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	orders, err := h.service.GetUserOrders(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "User orders retrieved successfully", orders)
}

// CreateOrderRequest is a single client-priced order line.
type CreateOrderRequest struct {
	ProductID       uint             `json:"productId" validate:"required" msg:"Product ID must be a valid integer"`
	Quantity        int              `json:"quantity" validate:"min=1" msg:"Quantity must be at least 1"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	ShippingAddress string           `json:"shippingAddress" validate:"notblank" msg:"Shipping address is required"`
}

// HandleCreateOrder stores one order line exactly as submitted. Stock is not
// touched; clients should prefer checkout.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	var verrs validation.Errors
	if err := h.validate.Struct(req); err != nil && !errors.As(err, &verrs) {
		return err
	}
	if req.TotalAmount == nil || req.TotalAmount.IsNegative() {
		verrs = append(verrs, validation.FieldError{Field: "totalAmount", Message: "Total amount must be a positive number"})
	}
	if len(verrs) > 0 {
		return httpx.Invalid(c, verrs)
	}

	userID, _ := middleware.UserID(c)
	order, err := h.service.CreateOrder(c.UserContext(), userID, services.LegacyOrderInput{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		TotalAmount:     *req.TotalAmount,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return httpx.Created(c, "Order created successfully", order)
}

// CheckoutItem is one cart line. Price is the client's snapshot and is ignored.
type CheckoutItem struct {
	ProductID     uint             `json:"productId" validate:"required"`
	Quantity      int              `json:"quantity" validate:"min=1"`
	SelectedColor string           `json:"selectedColor"`
	Price         *decimal.Decimal `json:"price,omitempty"`
}

// CheckoutRequest is the body of POST /orders/checkout.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items" validate:"required,min=1,dive" msg:"Cart is empty"`
	AddressID       *uint          `json:"addressId"`
	ShippingAddress string         `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required,oneof=cod card" msg:"Payment method must be cod or card"`
	CardLast4       string         `json:"cardLast4"`
}

// HandleCheckout places the whole cart in one transaction.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	lines := make([]models.CheckoutLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, models.CheckoutLine{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedColor: strings.TrimSpace(item.SelectedColor),
		})
	}

	userID, _ := middleware.UserID(c)
	result, err := h.service.Checkout(c.UserContext(), userID, services.CheckoutInput{
		Lines:           lines,
		AddressID:       req.AddressID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CardLast4:       req.CardLast4,
	})
	if err != nil {
		return h.checkoutError(c, userID, err)
	}
	return httpx.Created(c, "Order placed successfully", result)
}

func (h *OrderHandler) checkoutError(c *fiber.Ctx, userID uint, err error) error {
	slog.Info("checkout rejected", "user_id", userID, "reason", err)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return httpx.Fail(c, fiber.StatusBadRequest, "Cart is empty")
	case errors.Is(err, services.ErrInvalidPayment):
		return httpx.FieldInvalid(c, "paymentMethod", "Card payments need the last 4 digits of the card")
	case errors.Is(err, services.ErrShippingRequired):
		return httpx.FieldInvalid(c, "shippingAddress", "Shipping address is required")
	case errors.Is(err, services.ErrAddressNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "Address not found")
	case errors.Is(err, services.ErrInsufficientStock):
		return httpx.FieldInvalid(c, "items", "Insufficient stock: "+lineDetail(err))
	case errors.Is(err, services.ErrUnknownColor):
		return httpx.FieldInvalid(c, "items", "Selected color is not available: "+lineDetail(err))
	case errors.Is(err, services.ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
	default:
		return err
	}
}

// lineDetail drops the outer wrapping so the client sees which line failed.
func lineDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "line "); i >= 0 {
		return msg[i:]
	}
	return msg
}

// UpdateStatusRequest is the body of PUT /orders/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateOrderStatus moves an order to another status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return httpx.Fail(c, fiber.StatusBadRequest, invalidStatusMessage)
		case errors.Is(err, services.ErrNotFound):
			return httpx.Fail(c, fiber.StatusNotFound, "Order not found")
		}
		return err
	}
	return httpx.OK(c, "Order status updated successfully", order)
}

// HandleGetStatistics reports order counts and totals for today, this month and this year.
func (h *OrderHandler) HandleGetStatistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return httpx.OK(c, "Order statistics retrieved successfully", stats)
}
