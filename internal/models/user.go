package models

import "time"

// DefaultPhonePrefix is applied when a registration omits phone_prefix.
const DefaultPhonePrefix = "+44"

// User represents a customer or administrator of the store.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password     string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Surname      string    `json:"surname" gorm:"type:varchar(255);not null"`
	PhonePrefix  string    `json:"phone_prefix" gorm:"type:varchar(10);default:'+44'"`
	Telephone    string    `json:"telephone" gorm:"type:varchar(20)"`
	ProfileImage string    `json:"profile_image" gorm:"type:varchar(255)"`
	IsAdmin      bool      `json:"isAdmin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
