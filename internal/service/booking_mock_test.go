package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/lock"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/repository/memory"
	"rentalshop-backend/internal/service"
)

func TestBookingService_LockFailureWritesNothing(t *testing.T) {
	store := memory.NewStore()
	memory.AddShop(store, domain.Shop{ID: 1})
	bookingRepo := new(MockBookingRepo)
	locker := new(MockLocker)
	svc := service.NewBookingService(store.Shops, bookingRepo, store.Vehicles, store.Customers, locker, booking.NewMachine(booking.DefaultBackdateWindow), ist)

	ctx := context.Background()
	locker.On("Lock", ctx, int32(1)).Return(lock.ErrNotAcquired)

	_, err := svc.CancelBooking(ctx, clerk, 3, "")
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	bookingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	bookingRepo.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestBookingService_CommitFailureIsReturned(t *testing.T) {
	store := memory.NewStore()
	memory.AddShop(store, domain.Shop{ID: 1})
	bookingRepo := new(MockBookingRepo)
	locker := new(MockLocker)
	svc := service.NewBookingService(store.Shops, bookingRepo, store.Vehicles, store.Customers, locker, booking.NewMachine(booking.DefaultBackdateWindow), ist)

	ctx := context.Background()
	current := &domain.Booking{
		ID: 3, ShopID: 1, Number: 9, VehicleIDs: []int32{1},
		StartDate: time.Date(2024, 1, 2, 10, 0, 0, 0, ist), EndDate: time.Date(2024, 1, 3, 10, 0, 0, 0, ist),
		RentAmount: 1000, DepositAmount: 2000, TotalAmount: 3000, Remaining: 3000,
		Status: domain.BookingStatusBooked, PaymentStatus: domain.PaymentStatusUnpaid,
	}
	locker.On("Lock", ctx, int32(1)).Return(nil)
	bookingRepo.On("GetByID", ctx, int32(1), int32(3)).Return(current, nil)
	bookingRepo.On("Commit", ctx, mock.MatchedBy(func(m repository.Mutation) bool {
		return m.Booking.Status == domain.BookingStatusCancelled && m.Entry.ActorID == clerk.ID
	})).Return(errors.New("connection reset"))

	b, err := svc.CancelBooking(ctx, clerk, 3, "no show")
	require.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, domain.BookingStatusBooked, current.Status, "loaded booking is not modified")
	bookingRepo.AssertExpectations(t)
}

func TestBookingService_VehicleArchivedBeforeLockIsRejected(t *testing.T) {
	store := memory.NewStore()
	memory.AddShop(store, domain.Shop{ID: 1})
	ctx := context.Background()

	v := &domain.Vehicle{ShopID: 1, Name: "Activa", RegistrationNumber: "KA01AB1234", Category: domain.VehicleCategoryBike, DailyPrice: 500}
	require.NoError(t, store.Vehicles.Create(ctx, v))
	spare := &domain.Vehicle{ShopID: 1, Name: "Jupiter", RegistrationNumber: "KA01AB5678", Category: domain.VehicleCategoryBike, DailyPrice: 500}
	require.NoError(t, store.Vehicles.Create(ctx, spare))

	machine := booking.NewMachine(booking.DefaultBackdateWindow)
	machine.Now = func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, ist) }
	setup := service.NewBookingService(store.Shops, store.Bookings, store.Vehicles, store.Customers, lock.NewLocal(), machine, ist)
	existing, err := setup.CreateBooking(ctx, clerk, service.CreateBookingRequest{
		VehicleIDs: []int32{spare.ID},
		Customer:   &domain.Customer{Name: "Asha"},
		Start:      "2024-01-02T10:00",
		End:        "2024-01-03T10:00",
	})
	require.NoError(t, err)

	// Another request archives the vehicle while this one waits for the lock.
	locker := new(MockLocker)
	locker.On("Lock", ctx, int32(1)).Return(nil).Run(func(mock.Arguments) {
		cur, err := store.Vehicles.GetByID(ctx, 1, v.ID)
		require.NoError(t, err)
		cur.Archived = true
		require.NoError(t, store.Vehicles.Update(ctx, cur))
	})
	svc := service.NewBookingService(store.Shops, store.Bookings, store.Vehicles, store.Customers, locker, machine, ist)

	t.Run("create", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, clerk, service.CreateBookingRequest{
			VehicleIDs: []int32{v.ID},
			Customer:   &domain.Customer{Name: "Ravi"},
			Start:      "2024-01-04T10:00",
			End:        "2024-01-05T10:00",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("update", func(t *testing.T) {
		_, err := svc.UpdateBooking(ctx, clerk, existing.ID, service.UpdateBookingRequest{
			VehicleIDs: []int32{v.ID},
			Start:      "2024-01-02T10:00",
			End:        "2024-01-03T10:00",
			Rent:       500,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := store.Bookings.GetByID(ctx, 1, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, []int32{spare.ID}, stored.VehicleIDs)
		assert.Len(t, stored.History, 1)
	})
}
