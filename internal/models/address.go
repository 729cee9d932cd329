package models

import (
	"strings"
	"time"
)

// Address is an entry in a user's address book.
type Address struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"-" gorm:"not null;index"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	FullName   string    `json:"fullName" gorm:"type:varchar(255);not null"`
	Line1      string    `json:"line1" gorm:"type:varchar(255);not null"`
	Line2      string    `json:"line2" gorm:"type:varchar(255)"`
	City       string    `json:"city" gorm:"type:varchar(100);not null"`
	PostalCode string    `json:"postalCode" gorm:"type:varchar(20);not null"`
	Country    string    `json:"country" gorm:"type:varchar(100);not null"`
	Phone      string    `json:"phone" gorm:"type:varchar(30)"`
	IsDefault  bool      `json:"isDefault" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ShippingText renders the address on one line the way it is printed on an order.
func (a *Address) ShippingText() string {
	parts := []string{
		a.FullName,
		a.Line1,
		a.Line2,
		strings.TrimSpace(a.City + " " + a.PostalCode),
		a.Country,
	}
	if a.Phone != "" {
		parts = append(parts, "Phone: "+a.Phone)
	}
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// AddressUpdate carries the fields of a partial address update. Nil means unchanged.
type AddressUpdate struct {
	FullName   *string
	Line1      *string
	Line2      *string
	City       *string
	PostalCode *string
	Country    *string
	Phone      *string
	IsDefault  *bool
}

// Columns maps the set fields to their column names.
func (u AddressUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("full_name", u.FullName)
	set("line1", u.Line1)
	set("line2", u.Line2)
	set("city", u.City)
	set("postal_code", u.PostalCode)
	set("country", u.Country)
	set("phone", u.Phone)
	return cols
}
