package services

import (
	"context"
	"fmt"
	"strings"

	"fwstore/internal/models"
	"fwstore/internal/repositories"

	"github.com/shopspring/decimal"
)

// ProductPatch is a partial product update. Nil fields keep the stored value.
type ProductPatch struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	MonthlyPrice *decimal.Decimal
	Category     *string
	Stock        *int
	Colors       models.Colors
	Rating       *decimal.Decimal
	Reviews      *int
	// NewImages are appended to the stored list.
	NewImages []string
}

// ProductService handles business logic related to products and their reviews.
type ProductService struct {
	repo    repositories.ProductRepository
	reviews repositories.ReviewRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, reviews repositories.ReviewRepository) *ProductService {
	return &ProductService{
		repo:    repo,
		reviews: reviews,
	}
}

// ListProducts returns the catalog narrowed by filter.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.GetAll(ctx, filter)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct stores a new product exactly as given. At least one color is required.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if len(product.Colors) == 0 {
		return fmt.Errorf("%w: at least one color is required", ErrInvalidProductInput)
	}
	if product.Images == nil {
		product.Images = models.Images{}
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct merges patch into the stored product and saves it.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		product.Name = *patch.Name
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.MonthlyPrice != nil {
		product.MonthlyPrice = decimal.NewNullDecimal(*patch.MonthlyPrice)
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) != "" {
		product.Category = *patch.Category
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if len(patch.Colors) > 0 {
		product.Colors = patch.Colors
	}
	if patch.Rating != nil {
		product.Rating = *patch.Rating
	}
	if patch.Reviews != nil {
		product.Reviews = *patch.Reviews
	}
	if len(patch.NewImages) > 0 {
		product.Images = append(product.Images, patch.NewImages...)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// ListReviews returns a product's reviews, newest first.
func (s *ProductService) ListReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// AddReview stores a review and refreshes the product's rating.
func (s *ProductService) AddReview(ctx context.Context, review *models.Review) error {
	review.UserName = strings.TrimSpace(review.UserName)
	return s.reviews.Create(ctx, review)
}
