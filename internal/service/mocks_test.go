package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking, customer *domain.Customer) error {
	args := m.Called(ctx, b, customer)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListOverlapping(ctx context.Context, shopID int32, from, to time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) List(ctx context.Context, shopID int32, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) Commit(ctx context.Context, mu repository.Mutation) error {
	args := m.Called(ctx, mu)
	return args.Error(0)
}
func (m *MockBookingRepo) ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, shopID, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockBookingRepo) ListInvoicePending(ctx context.Context, limit int32) ([]domain.Booking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockLocker
type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Lock(ctx context.Context, shopID int32) (func(), error) {
	args := m.Called(ctx, shopID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}
