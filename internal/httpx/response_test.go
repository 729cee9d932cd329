package httpx_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"fwstore/internal/httpx"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func newApp(development bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(development)})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db down") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return httpx.Invalid(c, validation.Errors{{Field: "email", Message: "Please enter a valid email address"}})
	})
	app.Use(httpx.NotFound)
	return app
}

func TestErrorHandler_HidesDetailOutsideDevelopment(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Something went wrong!", body["message"])
	assert.NotContains(t, body, "error")
}

func TestErrorHandler_ShowsDetailInDevelopment(t *testing.T) {
	resp, err := newApp(true).Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, "db down", body["error"])
}

func TestErrorHandler_KeepsFiberStatus(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", decode(t, resp.Body)["message"])
}

func TestNotFound(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", decode(t, resp.Body)["message"])
}

func TestInvalid(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, "Validation failed", body["message"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].(map[string]interface{})["field"])
}
