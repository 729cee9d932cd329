package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock is returned when a reservation exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownColor is returned when a reservation names a color the product does not offer.
	ErrUnknownColor = errors.New("unknown color")
)

// Product represents a piece of furniture in the catalog.
type Product struct {
	ID           uint                `json:"id" gorm:"primaryKey"`
	Name         string              `json:"name" gorm:"type:varchar(255);not null"`
	Description  string              `json:"description" gorm:"type:text"`
	Price        decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	MonthlyPrice decimal.NullDecimal `json:"monthly_price" gorm:"type:decimal(10,2)"`
	Category     string              `json:"category" gorm:"type:varchar(100);index"`
	Stock        int                 `json:"stock" gorm:"not null;default:0"`
	Colors       Colors              `json:"colors" gorm:"type:json"`
	Images       Images              `json:"images" gorm:"type:json"`
	Rating       decimal.Decimal     `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	Reviews      int                 `json:"reviews" gorm:"not null;default:0"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// AfterFind fills in the stock of colors that were stored as bare names.
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.Colors = p.Colors.WithFallbackStock(p.Stock)
	return nil
}

// Reserve takes quantity units out of the product's stock and, when color is
// set, out of that color's stock as well.
func (p *Product) Reserve(quantity int, color string) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if p.Stock < quantity {
		return fmt.Errorf("%w for product %s (requested: %d, available: %d)", ErrInsufficientStock, p.Name, quantity, p.Stock)
	}
	if color != "" {
		i := p.Colors.Index(color)
		if i < 0 {
			return fmt.Errorf("%w %q for product %s", ErrUnknownColor, color, p.Name)
		}
		if p.Colors[i].Stock < quantity {
			return fmt.Errorf("%w for product %s in %s (requested: %d, available: %d)",
				ErrInsufficientStock, p.Name, p.Colors[i].Name, quantity, p.Colors[i].Stock)
		}
		p.Colors[i].Stock -= quantity
	}
	p.Stock -= quantity
	return nil
}

// MatchesColor reports whether the product offers a color with the given name.
func (p *Product) MatchesColor(color string) bool {
	return p.Colors.Index(color) >= 0
}

// ProductFilter narrows and orders a catalog listing.
type ProductFilter struct {
	Category string
	Query    string
	Color    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// Supported values for ProductFilter.Sort.
const (
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
)

// NormalizedSort returns the sort key, falling back to SortNewest.
func (f ProductFilter) NormalizedSort() string {
	switch strings.ToLower(f.Sort) {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return strings.ToLower(f.Sort)
	default:
		return SortNewest
	}
}
