package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"fwstore/internal/httpx"
	"fwstore/internal/middleware"
	"fwstore/internal/services"
	"fwstore/internal/storage"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for accounts and authentication.
type AuthHandler struct {
	authService *services.AuthService
	uploads     *storage.Uploads
	validate    *validation.Validator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, uploads *storage.Uploads, v *validation.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		uploads:     uploads,
		validate:    v,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, g Guards) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Post("/reset-password", h.HandleResetPassword)

	authRoutes.Get("/profile", g.Auth, h.HandleGetProfile)
	authRoutes.Put("/profile", g.Auth, h.HandleUpdateProfile)
	authRoutes.Delete("/profile", g.Auth, h.HandleDeleteAccount)
	authRoutes.Put("/password", g.Auth, h.HandleChangePassword)
	authRoutes.Post("/profile-image", g.Auth, h.HandleUploadProfileImage)

	authRoutes.Get("/users", g.Auth, g.Admin, h.HandleListUsers)
	authRoutes.Delete("/user/:id", g.Auth, g.Admin, h.HandleDeleteUser)
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email" msg:"Please enter a valid email address"`
	Password    string `json:"password" validate:"min=6,strongpassword" msg:"min=Password must be at least 6 characters long"`
	Name        string `json:"name" validate:"min=2,max=100,personname" msg:"personname=Name can only contain letters and spaces|Name must be between 2 and 100 characters"`
	Surname     string `json:"surname" validate:"min=2,max=100,personname" msg:"personname=Surname can only contain letters and spaces|Surname must be between 2 and 100 characters"`
	PhonePrefix string `json:"phone_prefix" validate:"omitempty,min=1,max=10" msg:"Phone prefix must be between 1 and 10 characters"`
	Telephone   string `json:"telephone" validate:"omitempty,min=10,max=20,phone" msg:"phone=Telephone number can only contain numbers, spaces, and special characters|Telephone number must be between 10 and 20 characters"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	user, token, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Surname:     req.Surname,
		PhonePrefix: req.PhonePrefix,
		Telephone:   req.Telephone,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return httpx.Fail(c, fiber.StatusBadRequest, "User with this email already exists")
		}
		return err
	}

	return httpx.Created(c, "User registered successfully", fiber.Map{"user": user, "token": token})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please enter a valid email address"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return httpx.Fail(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	return httpx.OK(c, "Login successful", fiber.Map{"user": user, "token": token})
}

// HandleGetProfile returns the caller's account.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	user, err := h.authService.Profile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}
	return httpx.OK(c, "", fiber.Map{"user": user})
}

// UpdateProfileRequest is the body of PUT /auth/profile. Absent fields are left alone.
type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=2,max=100,personname" msg:"personname=Name can only contain letters and spaces|Name must be between 2 and 100 characters"`
	Surname     *string `json:"surname" validate:"omitnil,min=2,max=100,personname" msg:"personname=Surname can only contain letters and spaces|Surname must be between 2 and 100 characters"`
	PhonePrefix *string `json:"phone_prefix" validate:"omitnil,min=1,max=10" msg:"Phone prefix must be between 1 and 10 characters"`
	Telephone   *string `json:"telephone" validate:"omitempty,min=10,max=20,phone" msg:"phone=Telephone number can only contain numbers, spaces, and special characters|Telephone number must be between 10 and 20 characters"`
}

// HandleUpdateProfile updates the caller's name and phone details.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	for _, s := range []*string{req.Name, req.Surname} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	userID, _ := middleware.UserID(c)
	user, err := h.authService.UpdateProfile(c.UserContext(), userID, services.ProfileUpdate{
		Name:        req.Name,
		Surname:     req.Surname,
		PhonePrefix: req.PhonePrefix,
		Telephone:   req.Telephone,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}
	return httpx.OK(c, "Profile updated successfully", fiber.Map{"user": user})
}

// HandleDeleteAccount deletes the caller's account and everything it owns.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	if err := h.authService.DeleteAccount(c.UserContext(), userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "User not found")
		}
		return err
	}
	return httpx.OK(c, "Account deleted successfully", nil)
}

// ChangePasswordRequest is the body of PUT /auth/password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleChangePassword replaces the caller's password.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userID, _ := middleware.UserID(c)
	err := h.authService.ChangePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	switch {
	case err == nil:
		return httpx.OK(c, "Password changed successfully.", nil)
	case errors.Is(err, services.ErrWrongPassword):
		return httpx.Fail(c, fiber.StatusUnauthorized, "Old password is incorrect.")
	case errors.Is(err, services.ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "User not found.")
	default:
		if msg, ok := passwordRuleMessage(err); ok {
			return httpx.Fail(c, fiber.StatusBadRequest, msg)
		}
		return err
	}
}

// passwordRuleMessage renders the rule failures shared by change and reset.
func passwordRuleMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrMissingPassword):
		return "All password fields are required.", true
	case errors.Is(err, services.ErrPasswordMismatch):
		return "New passwords do not match.", true
	case errors.Is(err, services.ErrWeakPassword):
		return "Password must be at least 6 characters and contain uppercase, lowercase, and a number.", true
	}
	return "", false
}

// HandleUploadProfileImage stores the multipart "image" file as the caller's picture.
func (h *AuthHandler) HandleUploadProfileImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "No image uploaded.")
	}
	userID, _ := middleware.UserID(c)
	previous, err := h.authService.Profile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "User not found.")
		}
		return err
	}

	path, err := h.uploads.SaveImage(file)
	if err != nil {
		if msg, ok := uploadErrorMessage(err); ok {
			return httpx.Fail(c, fiber.StatusBadRequest, msg)
		}
		return err
	}
	if err := h.authService.SetProfileImage(c.UserContext(), userID, path); err != nil {
		if rmErr := h.uploads.Remove(path); rmErr != nil {
			slog.Warn("failed to remove profile image", "user_id", userID, "path", path, "error", rmErr)
		}
		return err
	}
	if previous.ProfileImage != "" {
		if err := h.uploads.Remove(previous.ProfileImage); err != nil {
			slog.Warn("failed to remove old profile image", "user_id", userID, "error", err)
		}
	}
	return c.JSON(fiber.Map{"success": true, "imageUrl": path})
}

func uploadErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return "Only image files are allowed", true
	case errors.Is(err, storage.ErrTooLarge):
		return "Image is too large", true
	}
	return "", false
}

// HandleListUsers lists every account for the admin dashboard.
func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return httpx.OK(c, "Users retrieved successfully", users)
}

// HandleDeleteUser lets an admin remove another account.
func (h *AuthHandler) HandleDeleteUser(c *fiber.Ctx) error {
	targetID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	adminID, _ := middleware.UserID(c)
	err = h.authService.DeleteUserByAdmin(c.UserContext(), adminID, targetID)
	switch {
	case err == nil:
		return httpx.OK(c, "User deleted successfully", nil)
	case errors.Is(err, services.ErrSelfDelete):
		return httpx.Fail(c, fiber.StatusBadRequest, "Admin cannot delete themselves")
	case errors.Is(err, services.ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "User not found or already deleted")
	default:
		return err
	}
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword always answers the same way so it cannot reveal which
// emails have accounts.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return httpx.Fail(c, fiber.StatusBadRequest, "Email is required")
	}
	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return httpx.OK(c, "If an account exists for this email, a password reset link has been sent", nil)
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleResetPassword sets a new password using a token from forgot-password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	err := h.authService.ResetPassword(c.UserContext(), req.Token, req.NewPassword, req.ConfirmPassword)
	switch {
	case err == nil:
		return httpx.OK(c, "Password has been reset successfully", nil)
	case errors.Is(err, services.ErrResetTokenInvalid):
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid or expired reset token")
	default:
		if msg, ok := passwordRuleMessage(err); ok {
			return httpx.Fail(c, fiber.StatusBadRequest, msg)
		}
		return err
	}
}
