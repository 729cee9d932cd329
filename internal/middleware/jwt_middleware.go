package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fwstore/internal/httpx"
	"fwstore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the fiber.Ctx Locals key holding the authenticated user id.
const UserIDKey = "user_id"

const (
	msgNoToken      = "Authentication failed: No token provided."
	msgInvalidToken = "Authentication failed: Invalid token."
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (uint, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. Every
// rejection is logged with its own reason but answered with the same body.
func AuthRequired(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authHeader == "" {
			slog.Info("auth rejected", "reason", "no token", "path", c.Path())
			return httpx.Fail(c, fiber.StatusUnauthorized, msgNoToken)
		}

		// Expected format: "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			slog.Info("auth rejected", "reason", "malformed authorization header", "path", c.Path())
			return httpx.Fail(c, fiber.StatusUnauthorized, msgInvalidToken)
		}

		userID, err := auth.ValidateToken(parts[1])
		if err != nil {
			reason := "invalid token"
			switch {
			case errors.Is(err, services.ErrTokenMalformed):
				reason = "malformed token"
			case errors.Is(err, services.ErrTokenExpired):
				reason = "expired token"
			}
			slog.Info("auth rejected", "reason", reason, "path", c.Path(), "error", err)
			return httpx.Fail(c, fiber.StatusUnauthorized, msgInvalidToken)
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// AdminChecker reports whether a user holds the admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// AdminOnly must run after AuthRequired. Non-admins get 403.
func AdminOnly(admins AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return httpx.Fail(c, fiber.StatusUnauthorized, msgNoToken)
		}
		isAdmin, err := admins.IsAdmin(c.UserContext(), userID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return err
		}
		if !isAdmin {
			slog.Info("admin access denied", "user_id", userID, "path", c.Path())
			return httpx.Fail(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

// UserID returns the id stored by AuthRequired.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(UserIDKey).(uint)
	return id, ok && id > 0
}
