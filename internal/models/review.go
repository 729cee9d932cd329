package models

import "time"

// Review is a free-text rating left on a product under a display name.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	Product   *Product  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserName  string    `json:"user_name" gorm:"type:varchar(255);not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
