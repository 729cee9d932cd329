package repositories

import (
	"context"
	"errors"
	"fmt"

	"fwstore/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for favorite data access.
type FavoriteRepository interface {
	// Add saves the pair and reports whether a new row was written.
	Add(ctx context.Context, userID, productID uint) (bool, error)
	Remove(ctx context.Context, userID, productID uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.FavoriteProduct, error)
	Exists(ctx context.Context, userID, productID uint) (bool, error)
}

// GORMFavoriteRepository is a GORM implementation of FavoriteRepository.
type GORMFavoriteRepository struct {
	db *gorm.DB
}

// NewGORMFavoriteRepository creates a new instance of GORMFavoriteRepository.
func NewGORMFavoriteRepository(db *gorm.DB) *GORMFavoriteRepository {
	return &GORMFavoriteRepository{db: db}
}

// Add relies on the unique (user_id, product_id) index to detect repeats.
func (r *GORMFavoriteRepository) Add(ctx context.Context, userID, productID uint) (bool, error) {
	db := r.db.WithContext(ctx)
	var product models.Product
	if err := db.Select("id").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("product with ID %d: %w", productID, ErrNotFound)
		}
		return false, fmt.Errorf("failed to get product by ID %d: %w", productID, err)
	}
	fav := models.Favorite{UserID: userID, ProductID: productID}
	if err := db.Create(&fav).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

func (r *GORMFavoriteRepository) Remove(ctx context.Context, userID, productID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("favorite of product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's favorited products, most recently saved first.
func (r *GORMFavoriteRepository) ListByUser(ctx context.Context, userID uint) ([]models.FavoriteProduct, error) {
	products := []models.FavoriteProduct{}
	err := r.db.WithContext(ctx).
		Table("favorites").
		Select("products.*, favorites.created_at AS favorited_at").
		Joins("JOIN products ON products.id = favorites.product_id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC, favorites.id DESC").
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites of user %d: %w", userID, err)
	}
	// Scan skips the AfterFind hook.
	for i := range products {
		products[i].Colors = products[i].Colors.WithFallbackStock(products[i].Stock)
	}
	return products, nil
}

func (r *GORMFavoriteRepository) Exists(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
