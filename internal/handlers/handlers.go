// Package handlers exposes the store's services over HTTP.
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Guards are the middleware that protect routes. Admin must run after Auth.
type Guards struct {
	Auth  fiber.Handler
	Admin fiber.Handler
}

// paramID reads a positive integer path parameter.
func paramID(c *fiber.Ctx, key string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return uint(id), nil
}

func isMultipart(c *fiber.Ctx) bool {
	return len(c.Request().Header.MultipartFormBoundary()) > 0
}
