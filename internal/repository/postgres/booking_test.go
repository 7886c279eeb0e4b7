package postgres_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{"id", "shop_id", "number", "vehicle_ids", "customer_id", "start_date", "end_date", "rent_amount", "deposit_amount", "total_amount",
	"status", "payment_status", "paid_amount", "remaining_amount", "payment_method", "notes",
	"opening_odometer", "taken_at", "taken_by", "closing_odometer", "deposit_deduction", "refund_amount", "damage_notes",
	"returned_at", "finalized", "cancelled_at", "cancel_reason", "deleted_at", "invoice_number", "invoice_pending", "created_on", "updated_on"}

func bookingRow(id int32, status domain.BookingStatus, payment domain.PaymentStatus) []driver.Value {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{id, 1, 12, "{1,2}", 5, start, start.Add(48 * time.Hour), 1000, 500, 1500,
		string(status), string(payment), 0, 1500, "", "",
		nil, nil, nil, nil, 0, 0, "",
		nil, false, nil, "", nil, "", false, start, start}
}

func newBooking() *domain.Booking {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ShopID:        1,
		VehicleIDs:    []int32{1, 2},
		CustomerID:    5,
		StartDate:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		RentAmount:    1000,
		DepositAmount: 500,
		TotalAmount:   1500,
		Remaining:     1500,
		Status:        domain.BookingStatusBooked,
		PaymentStatus: domain.PaymentStatusUnpaid,
		History:       []domain.HistoryEntry{{ID: "01HQ", ActorID: 9, At: now, Description: "Booking created"}},
		CreatedOn:     now,
		UpdatedOn:     now,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success with inline customer", func(t *testing.T) {
		b := newBooking()
		b.CustomerID = 0
		customer := &domain.Customer{Name: "Asha", Phone: "9000000000", Verification: domain.VerificationPending}

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO customers").
			WithArgs(int32(1), "Asha", "9000000000", "", "", domain.VerificationPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
		mock.ExpectQuery("UPDATE shops SET booking_seq").
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"booking_seq"}).AddRow(13))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(40))
		mock.ExpectExec("DELETE FROM booking_vehicles").WithArgs(int32(40)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO booking_vehicles").
			WithArgs(int32(40), int32(1), b.StartDate, b.EndDate, true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO booking_vehicles").
			WithArgs(int32(40), int32(2), b.StartDate, b.EndDate, true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO booking_history").
			WithArgs("01HQ", int32(40), int32(9), sqlmock.AnyArg(), "Booking created").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Create(ctx, b, customer)
		assert.NoError(t, err)
		assert.Equal(t, int32(40), b.ID)
		assert.Equal(t, int32(13), b.Number)
		assert.Equal(t, int32(77), b.CustomerID)
		assert.Equal(t, int32(1), customer.ShopID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exclusion constraint", func(t *testing.T) {
		b := newBooking()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE shops SET booking_seq").
			WillReturnRows(sqlmock.NewRows([]string{"booking_seq"}).AddRow(14))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
		mock.ExpectExec("DELETE FROM booking_vehicles").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO booking_vehicles").
			WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})
		mock.ExpectRollback()

		err := repo.Create(ctx, b, nil)
		assert.ErrorIs(t, err, domain.ErrVehicleOverlap)
		var overlap *domain.OverlapError
		require.ErrorAs(t, err, &overlap)
		assert.Equal(t, int32(1), overlap.VehicleID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown shop", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE shops SET booking_seq").
			WillReturnRows(sqlmock.NewRows([]string{"booking_seq"}))
		mock.ExpectRollback()

		err := repo.Create(ctx, newBooking(), nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 AND shop_id = \\$2").
			WithArgs(int32(40), int32(1)).
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(40, domain.BookingStatusBooked, domain.PaymentStatusUnpaid)...))
		mock.ExpectQuery("SELECT (.+) FROM booking_history").
			WithArgs(int32(40)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "at", "description"}).
				AddRow("01HQ", 9, time.Now(), "Booking created"))

		b, err := repo.GetByID(ctx, 1, 40)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2}, b.VehicleIDs)
		assert.Equal(t, domain.BookingStatusBooked, b.Status)
		assert.Nil(t, b.OpeningOdometer)
		require.Len(t, b.History, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other shop", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 AND shop_id = \\$2").
			WithArgs(int32(40), int32(2)).
			WillReturnRows(sqlmock.NewRows(bookingCols))

		_, err := repo.GetByID(ctx, 2, 40)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Advance paid filter", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM \\(SELECT (.+) payment_status = 'PARTIAL' AND \\$2 = ANY\\(vehicle_ids\\)").
			WithArgs(int32(1), int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE shop_id = \\$1 (.+) LIMIT \\$3 OFFSET \\$4").
			WithArgs(int32(1), int32(2), int32(20), int32(0)).
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow(40, domain.BookingStatusConfirmed, domain.PaymentStatusPartial)...))

		bookings, count, err := repo.List(ctx, 1, domain.BookingFilter{Status: domain.BookingStatusAdvancePaid, VehicleID: 2, Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int32(1), count)
		require.Len(t, bookings, 1)
		assert.Equal(t, domain.BookingStatusAdvancePaid, bookings[0].Label())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Return with damage and settlement", func(t *testing.T) {
		b := newBooking()
		b.ID = 40
		b.VehicleIDs = []int32{1}
		b.Status = domain.BookingStatusCompleted
		closing := int64(1350)
		entry := domain.HistoryEntry{ID: "01HR", ActorID: 4, At: b.UpdatedOn, Description: "Vehicle returned"}
		m := repository.Mutation{
			Booking: *b,
			Entry:   entry,
			Vehicles: []domain.VehicleChange{{
				VehicleID: 1,
				Status:    domain.VehicleStatusAvailable,
				Odometer:  &closing,
				Damages:   []domain.Damage{{ID: "d-1", VehicleID: 1, Type: domain.DamageTypeDent, Severity: domain.DamageSeverityMinor}},
			}},
			Payment: &domain.Payment{ShopID: 1, BookingID: 40, Amount: 500, Kind: domain.PaymentKindSettlement, Method: domain.PaymentMethodCash},
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM booking_vehicles").WithArgs(int32(40)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO booking_vehicles").
			WithArgs(int32(40), int32(1), b.StartDate, b.EndDate, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO booking_history").
			WithArgs("01HR", int32(40), int32(4), sqlmock.AnyArg(), "Vehicle returned").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE vehicles SET status").
			WithArgs("AVAILABLE", sqlmock.AnyArg(), sqlmock.AnyArg(), int32(1), int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO vehicle_damages").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO payments").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		err := repo.Commit(ctx, m)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), m.Payment.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing booking", func(t *testing.T) {
		b := newBooking()
		b.ID = 99

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Commit(ctx, repository.Mutation{Booking: *b})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
