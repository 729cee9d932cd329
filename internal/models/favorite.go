package models

import "time"

// Favorite marks a product as saved by a user. The pair is unique.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorites_user_product"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_favorites_user_product"`
	Product   *Product  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteProduct is a favorited product together with when it was saved.
type FavoriteProduct struct {
	Product
	FavoritedAt time.Time `json:"favorited_at"`
}
