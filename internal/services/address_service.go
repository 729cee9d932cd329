package services

import (
	"context"
	"strings"

	"fwstore/internal/models"
	"fwstore/internal/repositories"
)

// AddressService manages a user's address book.
type AddressService struct {
	repo repositories.AddressRepository
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// List returns the default address first, then the newest.
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create adds an address. When it is flagged default, every other address of
// the user loses the flag.
func (s *AddressService) Create(ctx context.Context, userID uint, address *models.Address) error {
	address.ID = 0
	address.UserID = userID
	address.FullName = strings.TrimSpace(address.FullName)
	address.Line1 = strings.TrimSpace(address.Line1)
	address.Line2 = strings.TrimSpace(address.Line2)
	address.City = strings.TrimSpace(address.City)
	address.PostalCode = strings.TrimSpace(address.PostalCode)
	address.Country = strings.TrimSpace(address.Country)
	address.Phone = strings.TrimSpace(address.Phone)
	return s.repo.Create(ctx, address)
}

// Update applies a partial update to an address the user owns.
func (s *AddressService) Update(ctx context.Context, userID, id uint, update models.AddressUpdate) (*models.Address, error) {
	return s.repo.Update(ctx, userID, id, update)
}

// SetDefault makes the address the user's only default.
func (s *AddressService) SetDefault(ctx context.Context, userID, id uint) error {
	return s.repo.SetDefault(ctx, userID, id)
}

// Delete removes an address the user owns.
func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	return s.repo.Delete(ctx, userID, id)
}
