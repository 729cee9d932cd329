package services

import (
	"errors"

	"fwstore/internal/models"
	"fwstore/internal/repositories"
)

// Errors returned by the services. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound          = repositories.ErrNotFound
	ErrInsufficientStock = models.ErrInsufficientStock
	ErrUnknownColor      = models.ErrUnknownColor

	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTokenMissing        = errors.New("token missing")
	ErrTokenMalformed      = errors.New("token malformed")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrMissingPassword     = errors.New("all password fields are required")
	ErrPasswordMismatch    = errors.New("new passwords do not match")
	ErrWeakPassword        = errors.New("password too weak")
	ErrWrongPassword       = errors.New("old password is incorrect")
	ErrSelfDelete          = errors.New("admin cannot delete themselves")
	ErrResetTokenInvalid   = errors.New("reset token invalid or expired")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrShippingRequired    = errors.New("shipping address is required")
	ErrAddressNotFound     = errors.New("address not found")
	ErrInvalidPayment      = errors.New("invalid payment details")
	ErrInvalidProductInput = errors.New("invalid product")
)
