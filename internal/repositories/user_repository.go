package repositories

import (
	"context"

	"fwstore/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

// PasswordResetRepository stores single-use password reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHash(ctx context.Context, hash string) (*models.PasswordReset, error)
	// Redeem marks the token used and stores the new password hash in one transaction.
	Redeem(ctx context.Context, resetID, userID uint, passwordHash string) error
}
