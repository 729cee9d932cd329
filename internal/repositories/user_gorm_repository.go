package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fwstore/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create inserts a new user. A taken email yields ErrDuplicate.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetAll lists users, newest first.
func (r *GORMUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// Update writes the given columns of one user.
func (r *GORMUserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a user together with every row it owns. The explicit child
// deletes keep the cascade intact on engines without enforced foreign keys.
func (r *GORMUserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{
			&models.PasswordReset{},
			&models.Favorite{},
			&models.Address{},
			&models.Order{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete rows owned by user %d: %w", id, err)
			}
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// GORMPasswordResetRepository is a GORM implementation of PasswordResetRepository.
type GORMPasswordResetRepository struct {
	db *gorm.DB
}

// NewGORMPasswordResetRepository creates a new instance of GORMPasswordResetRepository.
func NewGORMPasswordResetRepository(db *gorm.DB) *GORMPasswordResetRepository {
	return &GORMPasswordResetRepository{db: db}
}

// Create stores a new reset token.
func (r *GORMPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if err := r.db.WithContext(ctx).Create(reset).Error; err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// GetByTokenHash looks a reset up by the hash of its token.
func (r *GORMPasswordResetRepository) GetByTokenHash(ctx context.Context, hash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.WithContext(ctx).First(&reset, "token_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("password reset: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return &reset, nil
}

// Redeem consumes the token and sets the password. A token already used by a
// concurrent request yields ErrNotFound.
func (r *GORMPasswordResetRepository) Redeem(ctx context.Context, resetID, userID uint, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", resetID).
			Update("used_at", time.Now().UTC())
		if res.Error != nil {
			return fmt.Errorf("failed to mark password reset used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("password reset %d: %w", resetID, ErrNotFound)
		}
		res = tx.Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %d: %w", userID, ErrNotFound)
		}
		return nil
	})
}
