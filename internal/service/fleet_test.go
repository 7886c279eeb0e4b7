package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/report"
	"rentalshop-backend/internal/service"
)

func vehicleIDs(vs []domain.Vehicle) []int32 {
	ids := make([]int32, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestFleetService_AvailableOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	third := &domain.Vehicle{ShopID: 1, Name: "Pulsar", RegistrationNumber: "ka02cd0001", Category: domain.VehicleCategoryBike, DailyPrice: 800}
	require.NoError(t, f.fleet.AddVehicle(ctx, third))
	assert.Equal(t, "KA02CD0001", third.RegistrationNumber)

	// Booked late on the 2nd, blocked on the 2nd, free on the 2nd.
	f.create(t, f.vehicles[0].ID, "2024-01-02T21:00", "2024-01-03T09:00")
	_, err := f.fleet.Block(ctx, clerk, f.vehicles[1].ID, "2024-01-02", "service")
	require.NoError(t, err)

	free, err := f.fleet.AvailableOn(ctx, 1, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, []int32{third.ID}, vehicleIDs(free))

	// On the 4th everything is free except the vehicle in maintenance.
	_, err = f.fleet.SetMaintenance(ctx, 1, third.ID, true)
	require.NoError(t, err)
	free, err = f.fleet.AvailableOn(ctx, 1, "2024-01-04")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{f.vehicles[0].ID, f.vehicles[1].ID}, vehicleIDs(free))

	_, err = f.fleet.AvailableOn(ctx, 1, "04/01/2024")
	assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}

func TestFleetService_ArchiveAndMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicles[0]

	m, err := f.fleet.SetMaintenance(ctx, 1, v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, m.Status)
	m, err = f.fleet.SetMaintenance(ctx, 1, v.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, m.Status)

	archived, err := f.fleet.ArchiveVehicle(ctx, 1, v.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	list, err := f.fleet.ListVehicles(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.bookings.CreateBooking(ctx, clerk, service.CreateBookingRequest{
		VehicleIDs: []int32{v.ID}, Customer: &domain.Customer{Name: "A"},
		Start: "2024-01-02T10:00", End: "2024-01-03T10:00", Rent: rent(1),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFleetService_ReportDamageAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicles[0]

	err := f.fleet.ReportDamage(ctx, clerk, &domain.Damage{VehicleID: v.ID, Type: "PAINT"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	d := &domain.Damage{VehicleID: v.ID, Type: domain.DamageTypeScratch, Notes: "rear fender"}
	require.NoError(t, f.fleet.ReportDamage(ctx, clerk, d))
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, domain.DamageSeverityMinor, d.Severity)
	assert.Equal(t, clerk.ID, d.RecordedBy)

	got, err := f.fleet.GetVehicle(ctx, 1, v.ID)
	require.NoError(t, err)
	require.Len(t, got.Damages, 1)

	// Descriptive updates never touch the damage list.
	got.Name = "Activa 6G"
	require.NoError(t, f.fleet.UpdateVehicle(ctx, got))
	again, err := f.fleet.GetVehicle(ctx, 1, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Activa 6G", again.Name)
	assert.Len(t, again.Damages, 1)
}

func TestFleetService_PurgeBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.fleet.Block(ctx, clerk, f.vehicles[0].ID, "2000-01-01", "")
	require.NoError(t, err)
	_, err = f.fleet.Block(ctx, clerk, f.vehicles[0].ID, "2999-01-01", "")
	require.NoError(t, err)

	n, err := f.fleet.PurgeBlocks(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := f.fleet.ListBlocks(ctx, 1, "1990-01-01", "3000-01-01")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "2999-01-01", left[0].Date)
}

func TestCalendarService_GetCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewCalendarService(f.store.Shops, f.store.Vehicles, f.store.Bookings, calendar.NewBuilder(calendar.DefaultMinWidthPct, calendar.DefaultMaxVisible), 31, ist)

	b := f.create(t, f.vehicles[0].ID, "2024-01-02T12:00", "2024-01-04T06:00")

	view, err := svc.GetCalendar(ctx, 1, "2024-01-01", 7)
	require.NoError(t, err)
	require.Len(t, view.Days, 7)
	assert.Len(t, view.Vehicles, 2)

	segs := view.Layout.Index[f.vehicles[0].ID]
	require.Len(t, segs[1], 1)
	assert.Equal(t, b.ID, segs[1][0].BookingID)
	assert.InDelta(t, 50.0, segs[1][0].LeftPct, 0.001)
	assert.Len(t, segs[2], 1)
	assert.Len(t, segs[3], 1)
	assert.Empty(t, segs[4])

	_, err = svc.GetCalendar(ctx, 1, "2024-01-01", 60)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReportService_Revenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewReportService(f.store.Shops, f.store.Bookings, time.Monday, ist)

	f.create(t, f.vehicles[0].ID, "2024-01-02T10:00", "2024-01-03T10:00")
	f.create(t, f.vehicles[1].ID, "2024-01-02T18:00", "2024-01-05T10:00")
	cancelled := f.create(t, f.vehicles[0].ID, "2024-01-04T10:00", "2024-01-05T10:00")
	_, err := f.bookings.CancelBooking(ctx, clerk, cancelled.ID, "")
	require.NoError(t, err)

	rep, err := svc.Revenue(ctx, 1, "2024-01-01", "2024-01-04", report.PeriodDay)
	require.NoError(t, err)
	require.Len(t, rep.Buckets, 4)
	assert.Zero(t, rep.Buckets[0].Count)
	assert.Equal(t, 2, rep.Buckets[1].Count)
	assert.Equal(t, int64(6000), rep.Buckets[1].Total)
	assert.Equal(t, int64(6000), rep.Totals.Total)

	again, err := svc.Revenue(ctx, 1, "2024-01-01", "2024-01-04", report.PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, rep.Buckets, again.Buckets)

	_, err = svc.Revenue(ctx, 1, "2024-01-01", "2024-01-04", "year")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
