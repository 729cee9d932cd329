// Package httpx holds the JSON envelope shared by every handler.
package httpx

import (
	"errors"
	"log/slog"

	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    interface{}             `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// Invalid writes a 400 for a validation failure. Non-validation errors are
// reported as a malformed body.
func Invalid(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{Success: false, Message: "Validation failed", Errors: verrs})
	}
	return Fail(c, fiber.StatusBadRequest, "Invalid request body")
}

// FieldInvalid writes a 400 naming a single offending field.
func FieldInvalid(c *fiber.Ctx, field, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  []validation.FieldError{{Field: field, Message: message}},
	})
}

// ErrorHandler renders errors that escape handlers. Fiber errors keep their
// status; everything else is a 500 whose detail is only exposed in development.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code == fiber.StatusNotFound {
				return Fail(c, fiber.StatusNotFound, "Route not found")
			}
			return Fail(c, fe.Code, fe.Message)
		}
		slog.Error("unhandled request error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err,
		)
		body := Envelope{Success: false, Message: "Something went wrong!"}
		if development {
			body.Error = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return Fail(c, fiber.StatusNotFound, "Route not found")
}
