package repositories

import (
	"context"
	"errors"
	"fmt"

	"fwstore/internal/models"

	"gorm.io/gorm"
)

// AddressRepository defines the interface for address book access. Every
// method is scoped to the owning user.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Address, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, userID, id uint, update models.AddressUpdate) (*models.Address, error)
	SetDefault(ctx context.Context, userID, id uint) error
	Delete(ctx context.Context, userID, id uint) error
}

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

// ListByUser returns the default address first, then the newest.
func (r *GORMAddressRepository) ListByUser(ctx context.Context, userID uint) ([]models.Address, error) {
	addresses := []models.Address{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses of user %d: %w", userID, err)
	}
	return addresses, nil
}

// GetByID returns the address only when it belongs to userID.
func (r *GORMAddressRepository) GetByID(ctx context.Context, userID, id uint) (*models.Address, error) {
	return findOwnedAddress(r.db.WithContext(ctx), userID, id)
}

// Create inserts the address. A default address clears the user's previous default.
func (r *GORMAddressRepository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		if address.IsDefault {
			return markDefault(tx, address.UserID, address.ID)
		}
		return nil
	})
}

// Update applies the set fields. An update with nothing set is reported as ErrNotFound.
func (r *GORMAddressRepository) Update(ctx context.Context, userID, id uint, update models.AddressUpdate) (*models.Address, error) {
	var updated *models.Address
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedAddress(tx, userID, id); err != nil {
			return err
		}
		cols := update.Columns()
		if len(cols) == 0 && update.IsDefault == nil {
			return fmt.Errorf("address %d has no changes: %w", id, ErrNotFound)
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Updates(cols).Error; err != nil {
				return fmt.Errorf("failed to update address %d: %w", id, err)
			}
		}
		if update.IsDefault != nil {
			if *update.IsDefault {
				if err := markDefault(tx, userID, id); err != nil {
					return err
				}
			} else if err := tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to clear default on address %d: %w", id, err)
			}
		}
		a, err := findOwnedAddress(tx, userID, id)
		updated = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDefault moves the user's default flag to the address in one transaction.
func (r *GORMAddressRepository) SetDefault(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedAddress(tx, userID, id); err != nil {
			return err
		}
		return markDefault(tx, userID, id)
	})
}

// Delete removes an address owned by userID.
func (r *GORMAddressRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete address %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

func findOwnedAddress(db *gorm.DB, userID, id uint) (*models.Address, error) {
	var address models.Address
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get address %d: %w", id, err)
	}
	return &address, nil
}

// markDefault flips every address of the user in one statement, leaving id as
// the only default.
func markDefault(tx *gorm.DB, userID, id uint) error {
	if err := tx.Exec("UPDATE addresses SET is_default = (id = ?) WHERE user_id = ?", id, userID).Error; err != nil {
		return fmt.Errorf("failed to set default address %d: %w", id, err)
	}
	return nil
}
