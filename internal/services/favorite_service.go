package services

import (
	"context"

	"fwstore/internal/models"
	"fwstore/internal/repositories"
)

// FavoriteService manages the products a user has saved.
type FavoriteService struct {
	repo repositories.FavoriteRepository
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(repo repositories.FavoriteRepository) *FavoriteService {
	return &FavoriteService{repo: repo}
}

// Add saves the product. added is false when it was already a favorite.
func (s *FavoriteService) Add(ctx context.Context, userID, productID uint) (added bool, err error) {
	return s.repo.Add(ctx, userID, productID)
}

// Remove unfavorites a product. It returns ErrNotFound when it was not favorited.
func (s *FavoriteService) Remove(ctx context.Context, userID, productID uint) error {
	return s.repo.Remove(ctx, userID, productID)
}

// List returns the user's favorite products, most recent first.
func (s *FavoriteService) List(ctx context.Context, userID uint) ([]models.FavoriteProduct, error) {
	return s.repo.ListByUser(ctx, userID)
}

// IsFavorited reports whether the user has favorited the product.
func (s *FavoriteService) IsFavorited(ctx context.Context, userID, productID uint) (bool, error) {
	return s.repo.Exists(ctx, userID, productID)
}
