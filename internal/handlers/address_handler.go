package handlers

import (
	"errors"
	"strings"

	"fwstore/internal/httpx"
	"fwstore/internal/middleware"
	"fwstore/internal/models"
	"fwstore/internal/services"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles the caller's address book.
type AddressHandler struct {
	service  *services.AddressService
	validate *validation.Validator
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService, v *validation.Validator) *AddressHandler {
	return &AddressHandler{service: service, validate: v}
}

// RegisterRoutes registers the address routes. All of them need a token.
func (h *AddressHandler) RegisterRoutes(router fiber.Router, g Guards) {
	addressRoutes := router.Group("/addresses", g.Auth)
	addressRoutes.Get("/", h.HandleList)
	addressRoutes.Post("/", h.HandleCreate)
	addressRoutes.Put("/:id", h.HandleUpdate)
	addressRoutes.Put("/:id/default", h.HandleSetDefault)
	addressRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns the caller's addresses, default first.
func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	addresses, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", addresses)
}

// AddressRequest is the body of POST /addresses.
type AddressRequest struct {
	FullName   string `json:"fullName" validate:"notblank" msg:"Full name is required"`
	Line1      string `json:"line1" validate:"notblank" msg:"Address line 1 is required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"notblank" msg:"City is required"`
	PostalCode string `json:"postalCode" validate:"notblank" msg:"Postal code is required"`
	Country    string `json:"country" validate:"notblank" msg:"Country is required"`
	Phone      string `json:"phone" validate:"omitempty,max=30,phone" msg:"Phone number can only contain numbers, spaces, and special characters"`
	IsDefault  bool   `json:"isDefault"`
}

// HandleCreate stores a new address for the caller.
func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var req AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	userID, _ := middleware.UserID(c)
	address := &models.Address{
		FullName:   req.FullName,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	}
	if err := h.service.Create(c.UserContext(), userID, address); err != nil {
		return err
	}
	return httpx.Created(c, "Address added", address)
}

// AddressUpdateRequest is the body of PUT /addresses/:id. Absent fields are left alone.
type AddressUpdateRequest struct {
	FullName   *string `json:"fullName" validate:"omitnil,notblank" msg:"Full name is required"`
	Line1      *string `json:"line1" validate:"omitnil,notblank" msg:"Address line 1 is required"`
	Line2      *string `json:"line2"`
	City       *string `json:"city" validate:"omitnil,notblank" msg:"City is required"`
	PostalCode *string `json:"postalCode" validate:"omitnil,notblank" msg:"Postal code is required"`
	Country    *string `json:"country" validate:"omitnil,notblank" msg:"Country is required"`
	Phone      *string `json:"phone" validate:"omitempty,max=30,phone" msg:"Phone number can only contain numbers, spaces, and special characters"`
	IsDefault  *bool   `json:"isDefault"`
}

// HandleUpdate changes only the fields present in the body.
func (h *AddressHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req AddressUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	for _, s := range []*string{req.FullName, req.Line1, req.Line2, req.City, req.PostalCode, req.Country, req.Phone} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	userID, _ := middleware.UserID(c)
	address, err := h.service.Update(c.UserContext(), userID, id, models.AddressUpdate{
		FullName:   req.FullName,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Address not found or no changes")
		}
		return err
	}
	return httpx.OK(c, "Address updated", address)
}

// HandleSetDefault makes the address the caller's only default.
func (h *AddressHandler) HandleSetDefault(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	if err := h.service.SetDefault(c.UserContext(), userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Address not found")
		}
		return err
	}
	return httpx.OK(c, "Default address updated", nil)
}

// HandleDelete removes one of the caller's addresses.
func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Address not found")
		}
		return err
	}
	return httpx.OK(c, "Address deleted", nil)
}
