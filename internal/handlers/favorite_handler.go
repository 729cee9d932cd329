package handlers

import (
	"errors"

	"fwstore/internal/httpx"
	"fwstore/internal/middleware"
	"fwstore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// FavoriteHandler handles a user's saved products.
type FavoriteHandler struct {
	service *services.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(service *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// RegisterRoutes registers the favorites routes. All of them need a token.
func (h *FavoriteHandler) RegisterRoutes(router fiber.Router, g Guards) {
	favoriteRoutes := router.Group("/favorites", g.Auth)
	favoriteRoutes.Get("/", h.HandleList)
	favoriteRoutes.Post("/", h.HandleAddFromBody)
	favoriteRoutes.Post("/:productId", h.HandleAdd)
	favoriteRoutes.Delete("/:productId", h.HandleRemove)
	favoriteRoutes.Get("/:productId/check", h.HandleCheck)
}

// HandleAdd saves the product named in the path.
func (h *FavoriteHandler) HandleAdd(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	return h.add(c, productID)
}

// HandleAddFromBody saves the product named by {"productId": n}.
func (h *FavoriteHandler) HandleAddFromBody(c *fiber.Ctx) error {
	var req struct {
		ProductID uint `json:"productId"`
	}
	if err := c.BodyParser(&req); err != nil || req.ProductID == 0 {
		return httpx.FieldInvalid(c, "productId", "Product ID must be a valid integer")
	}
	return h.add(c, req.ProductID)
}

func (h *FavoriteHandler) add(c *fiber.Ctx, productID uint) error {
	userID, _ := middleware.UserID(c)
	added, err := h.service.Add(c.UserContext(), userID, productID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	if !added {
		return httpx.OK(c, "Product is already in favorites", nil)
	}
	return httpx.OK(c, "Product added to favorites", nil)
}

// HandleRemove drops a product from the caller's favorites.
func (h *FavoriteHandler) HandleRemove(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	if err := h.service.Remove(c.UserContext(), userID, productID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found in favorites")
		}
		return err
	}
	return httpx.OK(c, "Product removed from favorites", nil)
}

// HandleList returns the caller's favorited products, newest first.
func (h *FavoriteHandler) HandleList(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	favorites, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "Favorites retrieved successfully", favorites)
}

// HandleCheck reports whether the caller saved the product.
func (h *FavoriteHandler) HandleCheck(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	ok, err := h.service.IsFavorited(c.UserContext(), userID, productID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", fiber.Map{"isFavorited": ok})
}
