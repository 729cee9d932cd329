package services_test

import (
	"context"
	"time"

	"fwstore/internal/events"
	"fwstore/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPasswordResetRepository is a mock implementation of repositories.PasswordResetRepository
type MockPasswordResetRepository struct {
	mock.Mock
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *MockPasswordResetRepository) GetByTokenHash(ctx context.Context, hash string) (*models.PasswordReset, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordReset), args.Error(1)
}

func (m *MockPasswordResetRepository) Redeem(ctx context.Context, resetID, userID uint, passwordHash string) error {
	args := m.Called(ctx, resetID, userID, passwordHash)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepository is a mock implementation of repositories.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]models.OrderDetail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*models.OrderDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) GetByUser(ctx context.Context, userID uint) ([]models.OrderDetail, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Checkout(ctx context.Context, userID uint, checkoutID, shipping string, lines []models.CheckoutLine) ([]models.Order, error) {
	args := m.Called(ctx, userID, checkoutID, shipping, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]models.Order), args.Error(1)
}

// MockAddressRepository is a mock implementation of repositories.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) ListByUser(ctx context.Context, userID uint) ([]models.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Address), args.Error(1)
}

func (m *MockAddressRepository) GetByID(ctx context.Context, userID, id uint) (*models.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) Create(ctx context.Context, address *models.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) Update(ctx context.Context, userID, id uint, update models.AddressUpdate) (*models.Address, error) {
	args := m.Called(ctx, userID, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) SetDefault(ctx context.Context, userID, id uint) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, userID, id uint) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
