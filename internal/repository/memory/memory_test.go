package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/repository/memory"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	store := memory.NewStore()
	memory.AddShop(store, domain.Shop{ID: 1, Name: "Hill Bikes", Timezone: "Asia/Kolkata"})
	memory.AddShop(store, domain.Shop{ID: 2, Name: "Beach Bikes"})
	return store
}

func addVehicle(t *testing.T, store *repository.Store, shopID int32, reg string) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{ShopID: shopID, Name: "Activa " + reg, RegistrationNumber: reg, Category: domain.VehicleCategoryBike,
		DailyPrice: 500, Status: domain.VehicleStatusAvailable}
	require.NoError(t, store.Vehicles.Create(context.Background(), v))
	return v
}

func holding(shopID int32, vehicleIDs []int32, start, end time.Time) *domain.Booking {
	return &domain.Booking{
		ShopID: shopID, VehicleIDs: vehicleIDs, CustomerID: 1, StartDate: start, EndDate: end,
		Status: domain.BookingStatusBooked, PaymentStatus: domain.PaymentStatusUnpaid,
		History: []domain.HistoryEntry{{ID: "01", Description: "Booking created"}},
	}
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestVehicles_ShopIsolation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	_, err := store.Vehicles.GetByID(ctx, 2, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dup := &domain.Vehicle{ShopID: 1, RegistrationNumber: "ka01"}
	assert.ErrorIs(t, store.Vehicles.Create(ctx, dup), domain.ErrValidation)

	// Same plate in another shop is fine.
	addVehicle(t, store, 2, "KA01")

	list, err := store.Vehicles.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVehicles_ArchivedHiddenByDefault(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")
	addVehicle(t, store, 1, "KA02")

	v.Archived = true
	require.NoError(t, store.Vehicles.Update(ctx, v))

	active, err := store.Vehicles.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := store.Vehicles.List(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookings_CreateNumbersPerShop(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v1 := addVehicle(t, store, 1, "KA01")
	v2 := addVehicle(t, store, 2, "GA01")

	a := holding(1, []int32{v1.ID}, day, day.Add(24*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, a, nil))
	b := holding(1, []int32{v1.ID}, day.Add(24*time.Hour), day.Add(48*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, b, nil))
	c := holding(2, []int32{v2.ID}, day, day.Add(24*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, c, nil))

	assert.Equal(t, int32(1), a.Number)
	assert.Equal(t, int32(2), b.Number)
	assert.Equal(t, int32(1), c.Number)
}

func TestBookings_CreateInlineCustomer(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	cust := &domain.Customer{Name: "Asha", Phone: "98450"}
	b := holding(1, []int32{v.ID}, day, day.Add(time.Hour))
	b.CustomerID = 0
	require.NoError(t, store.Bookings.Create(ctx, b, cust))

	assert.NotZero(t, cust.ID)
	assert.Equal(t, cust.ID, b.CustomerID)
	got, err := store.Customers.GetByID(ctx, 1, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
}

func TestBookings_GuardRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	first := holding(1, []int32{v.ID}, day.Add(10*time.Hour), day.Add(34*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, first, nil))

	second := holding(1, []int32{v.ID}, day.Add(20*time.Hour), day.Add(40*time.Hour))
	err := store.Bookings.Create(ctx, second, nil)
	var overlap *domain.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, first.ID, overlap.BookingID)

	// Back to back is allowed.
	third := holding(1, []int32{v.ID}, day.Add(34*time.Hour), day.Add(40*time.Hour))
	assert.NoError(t, store.Bookings.Create(ctx, third, nil))
}

func TestBookings_CommitAppliesMutation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")
	b := holding(1, []int32{v.ID}, day, day.Add(24*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, b, nil))

	next := b.Clone()
	next.Status = domain.BookingStatusCompleted
	odo := int64(4200)
	entry := domain.HistoryEntry{ID: "02", Description: "Returned"}
	next.History = append(next.History, entry)
	payment := &domain.Payment{Amount: 300, Kind: domain.PaymentKindSettlement, Method: domain.PaymentMethodCash}

	err := store.Bookings.Commit(ctx, repository.Mutation{
		Booking: next,
		Entry:   entry,
		Vehicles: []domain.VehicleChange{{
			VehicleID: v.ID, Status: domain.VehicleStatusAvailable, Odometer: &odo,
			Damages: []domain.Damage{{ID: "d1", VehicleID: v.ID, Type: domain.DamageTypeDent}},
		}},
		Payment: payment,
	})
	require.NoError(t, err)

	got, err := store.Bookings.GetByID(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, "Returned", got.History[1].Description)

	veh, err := store.Vehicles.GetByID(ctx, 1, v.ID)
	require.NoError(t, err)
	require.NotNil(t, veh.LastOdometer)
	assert.Equal(t, int64(4200), *veh.LastOdometer)
	assert.Len(t, veh.Damages, 1)

	payments, err := store.Bookings.ListPayments(ctx, 1, b.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, b.ID, payments[0].BookingID)
	assert.NotZero(t, payment.ID)

	// Completed bookings release the vehicle.
	again := holding(1, []int32{v.ID}, day, day.Add(24*time.Hour))
	assert.NoError(t, store.Bookings.Create(ctx, again, nil))
}

func TestBookings_CommitUnknownBooking(t *testing.T) {
	store := newStore(t)
	err := store.Bookings.Commit(context.Background(), repository.Mutation{Booking: domain.Booking{ID: 99, ShopID: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookings_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	var ids []int32
	for i := 0; i < 3; i++ {
		b := holding(1, []int32{v.ID}, day.Add(time.Duration(i)*24*time.Hour), day.Add(time.Duration(i)*24*time.Hour+time.Hour))
		require.NoError(t, store.Bookings.Create(ctx, b, nil))
		ids = append(ids, b.ID)
	}

	advance, _ := store.Bookings.GetByID(ctx, 1, ids[0])
	advance.Status = domain.BookingStatusConfirmed
	advance.PaymentStatus = domain.PaymentStatusPartial
	require.NoError(t, store.Bookings.Commit(ctx, repository.Mutation{Booking: *advance}))

	deleted, _ := store.Bookings.GetByID(ctx, 1, ids[1])
	deleted.Status = domain.BookingStatusDeleted
	require.NoError(t, store.Bookings.Commit(ctx, repository.Mutation{Booking: *deleted}))

	all, total, err := store.Bookings.List(ctx, 1, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Equal(t, ids[2], all[0].ID, "newest start first")

	adv, total, err := store.Bookings.List(ctx, 1, domain.BookingFilter{Status: domain.BookingStatusAdvancePaid})
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, ids[0], adv[0].ID)

	page, total, err := store.Bookings.List(ctx, 1, domain.BookingFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)
}

func TestBookings_ListOverlappingSkipsCancelled(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	b := holding(1, []int32{v.ID}, day, day.Add(24*time.Hour))
	require.NoError(t, store.Bookings.Create(ctx, b, nil))
	got, err := store.Bookings.ListOverlapping(ctx, 1, day.Add(12*time.Hour), day.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	cancelled := b.Clone()
	cancelled.Status = domain.BookingStatusCancelled
	require.NoError(t, store.Bookings.Commit(ctx, repository.Mutation{Booking: cancelled}))
	got, err = store.Bookings.ListOverlapping(ctx, 1, day.Add(12*time.Hour), day.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAvailability_BlockUnblockPurge(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	v := addVehicle(t, store, 1, "KA01")

	require.NoError(t, store.Availability.Block(ctx, &domain.AvailabilityOverride{ShopID: 1, VehicleID: v.ID, Date: "2024-03-01", Reason: "service"}))
	require.NoError(t, store.Availability.Block(ctx, &domain.AvailabilityOverride{ShopID: 1, VehicleID: v.ID, Date: "2024-03-01", Reason: "tyres"}))
	require.NoError(t, store.Availability.Block(ctx, &domain.AvailabilityOverride{ShopID: 1, VehicleID: v.ID, Date: "2024-03-05"}))

	err := store.Availability.Block(ctx, &domain.AvailabilityOverride{ShopID: 2, VehicleID: v.ID, Date: "2024-03-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.Availability.ListRange(ctx, 1, "2024-03-01", "2024-03-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tyres", list[0].Reason)

	n, err := store.Availability.PurgeBefore(ctx, "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Availability.Unblock(ctx, 1, v.ID, "2024-03-05"))
	assert.ErrorIs(t, store.Availability.Unblock(ctx, 1, v.ID, "2024-03-05"), domain.ErrNotFound)
}

func TestCustomers_ListSearch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, name := range []string{"Ravi", "Asha", "Ravindra"} {
		require.NoError(t, store.Customers.Create(ctx, &domain.Customer{ShopID: 1, Name: name, Phone: "9"}))
	}
	found, total, err := store.Customers.List(ctx, 1, "rav", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Equal(t, "Ravi", found[0].Name)

	_, total, err = store.Customers.List(ctx, 2, "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
