package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fwstore/internal/config"
	"fwstore/internal/events"
	"fwstore/internal/models"
	"fwstore/internal/repositories"
	"fwstore/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	Surname     string
	PhonePrefix string
	Telephone   string
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	Surname     *string
	PhonePrefix *string
	Telephone   *string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	resetRepo repositories.PasswordResetRepository
	publisher events.Publisher
	jwtSecret []byte
	tokenTTL  time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, resetRepo repositories.PasswordResetRepository, publisher events.Publisher, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		publisher: publisher,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		resetTTL:  cfg.ResetTokenTTL,
		now:       time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := NormalizeEmail(in.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	prefix := strings.TrimSpace(in.PhonePrefix)
	if prefix == "" {
		prefix = models.DefaultPhonePrefix
	}
	user := &models.User{
		Email:       email,
		Password:    hashed,
		Name:        strings.TrimSpace(in.Name),
		Surname:     strings.TrimSpace(in.Surname),
		PhonePrefix: prefix,
		Telephone:   strings.TrimSpace(in.Telephone),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the credentials. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateToken signs an HS256 token whose only identity claim is the user id.
func (s *AuthService) GenerateToken(userID uint) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns the user id it carries. The
// error tells malformed, expired and otherwise invalid tokens apart.
func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrTokenMissing
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return 0, fmt.Errorf("%w: %v", ErrTokenExpired, err)
			}
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok || id < 1 {
		return 0, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	return uint(id), nil
}

// Profile returns the user with the given id.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile writes the set fields. An update with nothing set is ErrNotFound.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Surname != nil {
		fields["surname"] = strings.TrimSpace(*in.Surname)
	}
	if in.PhonePrefix != nil {
		fields["phone_prefix"] = strings.TrimSpace(*in.PhonePrefix)
	}
	if in.Telephone != nil {
		fields["telephone"] = strings.TrimSpace(*in.Telephone)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty profile update: %w", ErrNotFound)
	}
	if err := s.userRepo.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// DeleteAccount removes the caller's account and everything it owns.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.userRepo.Delete(ctx, userID)
}

// ChangePassword replaces the password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrMissingPassword
	}
	if err := checkNewPassword(newPassword, confirmPassword); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"password": hashed})
}

// SetProfileImage records the public path of the user's new picture.
func (s *AuthService) SetProfileImage(ctx context.Context, userID uint, path string) error {
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"profile_image": path})
}

// ListUsers returns every account, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// DeleteUserByAdmin removes another user's account.
func (s *AuthService) DeleteUserByAdmin(ctx context.Context, adminID, targetID uint) error {
	if adminID == targetID {
		return ErrSelfDelete
	}
	return s.userRepo.Delete(ctx, targetID)
}

// IsAdmin reports whether the user holds the admin flag.
func (s *AuthService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// ForgotPassword issues a reset token when the email belongs to an account.
// Unknown emails are not an error so callers cannot discover which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			slog.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := uuid.NewString()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(s.resetTTL).UTC(),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	publish(ctx, s.publisher, events.TypePasswordResetRequested, strconv.FormatUint(uint64(user.ID), 10), events.PasswordResetRequested{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: reset.ExpiresAt,
	})
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if token == "" || newPassword == "" || confirmPassword == "" {
		return ErrMissingPassword
	}
	if err := checkNewPassword(newPassword, confirmPassword); err != nil {
		return err
	}
	reset, err := s.resetRepo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !reset.Usable(s.now()) {
		return ErrResetTokenInvalid
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.resetRepo.Redeem(ctx, reset.ID, reset.UserID, hashed); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	return nil
}

// EnsureAdmin creates the admin account, or grants the flag to an existing
// account with that email. It reports whether a new row was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin {
			return false, nil
		}
		return false, s.userRepo.Update(ctx, user.ID, map[string]interface{}{"is_admin": true})
	case !errors.Is(err, repositories.ErrNotFound):
		return false, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Email:       email,
		Password:    hashed,
		Name:        "Admin",
		Surname:     "User",
		PhonePrefix: models.DefaultPhonePrefix,
		IsAdmin:     true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

func checkNewPassword(newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if !validation.StrongPassword(newPassword) {
		return ErrWeakPassword
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
