package middleware_test

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"fwstore/internal/middleware"
	"fwstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{}

func (fakeAuth) ValidateToken(token string) (uint, error) {
	switch token {
	case "good":
		return 7, nil
	case "admin":
		return 1, nil
	case "expired":
		return 0, fmt.Errorf("%w: boom", services.ErrTokenExpired)
	case "garbage":
		return 0, fmt.Errorf("%w: boom", services.ErrTokenMalformed)
	default:
		return 0, services.ErrInvalidToken
	}
}

func (fakeAuth) IsAdmin(_ context.Context, id uint) (bool, error) {
	return id == 1, nil
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(fakeAuth{}), func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		return c.SendString(fmt.Sprint(id))
	})
	app.Get("/admin", middleware.AuthRequired(fakeAuth{}), middleware.AdminOnly(fakeAuth{}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthRequired(t *testing.T) {
	app := newApp()

	status, body := call(t, app, "/me", "Bearer good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "7", body)

	status, body = call(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.JSONEq(t, `{"success":false,"message":"Authentication failed: No token provided."}`, body)

	var bodies []string
	for _, header := range []string{"Bearer expired", "Bearer garbage", "Bearer forged", "Token good", "Bearer"} {
		status, body = call(t, app, "/me", header)
		assert.Equal(t, fiber.StatusUnauthorized, status, header)
		bodies = append(bodies, body)
	}
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
	assert.JSONEq(t, `{"success":false,"message":"Authentication failed: Invalid token."}`, bodies[0])
}

func TestAdminOnly(t *testing.T) {
	app := newApp()

	status, body := call(t, app, "/admin", "Bearer good")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.JSONEq(t, `{"success":false,"message":"Admin access required"}`, body)

	status, _ = call(t, app, "/admin", "Bearer admin")
	assert.Equal(t, fiber.StatusOK, status)
}
