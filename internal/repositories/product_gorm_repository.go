package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fwstore/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{db: db}
}

// GetAll retrieves the products matching filter.
func (r *GORMProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	switch filter.NormalizedSort() {
	case models.SortPriceAsc:
		q = q.Order("price ASC, id ASC")
	case models.SortPriceDesc:
		q = q.Order("price DESC, id DESC")
	case models.SortRatingDesc:
		q = q.Order("rating DESC, id DESC")
	default:
		q = q.Order("created_at DESC, id DESC")
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}

	// colors live in a JSON column, so the color filter runs after loading.
	if filter.Color != "" {
		kept := products[:0]
		for _, p := range products {
			if p.MatchesColor(filter.Color) {
				kept = append(kept, p)
			}
		}
		products = kept
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a product along with its reviews, favorites and orders.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Review{}, &models.Favorite{}, &models.Order{}} {
			if err := tx.Where("product_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete rows owned by product %d: %w", id, err)
			}
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
