package repositories

import (
	"context"
	"errors"
	"fmt"

	"fwstore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID uint) ([]models.Review, error)
	// Create stores the review and refreshes the product's rating and review count.
	Create(ctx context.Context, review *models.Review) error
}

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// ListByProduct returns the reviews of a product, newest first.
func (r *GORMReviewRepository) ListByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews of product %d: %w", productID, err)
	}
	return reviews, nil
}

func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, review.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %d: %w", review.ProductID, ErrNotFound)
			}
			return fmt.Errorf("failed to get product by ID %d: %w", review.ProductID, err)
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		var agg struct {
			Count int64
			Total int64
		}
		err := tx.Model(&models.Review{}).
			Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate reviews of product %d: %w", review.ProductID, err)
		}
		rating := decimal.Zero
		if agg.Count > 0 {
			rating = decimal.NewFromInt(agg.Total).DivRound(decimal.NewFromInt(agg.Count), 2)
		}
		err = tx.Model(&models.Product{}).
			Where("id = ?", review.ProductID).
			Updates(map[string]interface{}{"rating": rating, "reviews": agg.Count}).Error
		if err != nil {
			return fmt.Errorf("failed to refresh rating of product %d: %w", review.ProductID, err)
		}
		return nil
	})
}
