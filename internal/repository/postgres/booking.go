package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, shop_id, number, vehicle_ids, customer_id, start_date, end_date, rent_amount, deposit_amount, total_amount,
	status, payment_status, paid_amount, remaining_amount, payment_method, notes,
	opening_odometer, taken_at, taken_by, closing_odometer, deposit_deduction, refund_amount, damage_notes,
	returned_at, finalized, cancelled_at, cancel_reason, deleted_at, invoice_number, invoice_pending, created_on, updated_on`

func scanBooking(row interface{ Scan(...any) error }, b *domain.Booking) error {
	var (
		vehicleIDs  pq.Int32Array
		opening     sql.NullInt64
		closing     sql.NullInt64
		takenBy     sql.NullInt32
		takenAt     sql.NullTime
		returnedAt  sql.NullTime
		cancelledAt sql.NullTime
		deletedAt   sql.NullTime
	)
	err := row.Scan(&b.ID, &b.ShopID, &b.Number, &vehicleIDs, &b.CustomerID, &b.StartDate, &b.EndDate, &b.RentAmount, &b.DepositAmount, &b.TotalAmount,
		&b.Status, &b.PaymentStatus, &b.PaidAmount, &b.Remaining, &b.PaymentMethod, &b.Notes,
		&opening, &takenAt, &takenBy, &closing, &b.DepositDeduction, &b.RefundAmount, &b.DamageNotes,
		&returnedAt, &b.Finalized, &cancelledAt, &b.CancelReason, &deletedAt, &b.InvoiceNumber, &b.InvoicePending, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return err
	}
	b.VehicleIDs = []int32(vehicleIDs)
	if opening.Valid {
		b.OpeningOdometer = &opening.Int64
	}
	if closing.Valid {
		b.ClosingOdometer = &closing.Int64
	}
	if takenBy.Valid {
		b.TakenBy = &takenBy.Int32
	}
	b.TakenAt = nullTime(takenAt)
	b.ReturnedAt = nullTime(returnedAt)
	b.CancelledAt = nullTime(cancelledAt)
	b.DeletedAt = nullTime(deletedAt)
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking, customer *domain.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if customer != nil {
		customer.ShopID = b.ShopID
		if err := insertCustomer(ctx, tx, customer); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		b.CustomerID = customer.ID
	}

	err = tx.QueryRowContext(ctx, `UPDATE shops SET booking_seq = booking_seq + 1 WHERE id = $1 RETURNING booking_seq`, b.ShopID).Scan(&b.Number)
	if err != nil {
		return notFound(err, "shop", b.ShopID)
	}

	query := `INSERT INTO bookings (shop_id, number, vehicle_ids, customer_id, start_date, end_date, rent_amount, deposit_amount, total_amount,
	          status, payment_status, paid_amount, remaining_amount, payment_method, notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17) RETURNING id`
	logger.DatabaseCall(ctx, "create_booking", "INSERT INTO bookings", "shop_id", b.ShopID, "number", b.Number)
	err = tx.QueryRowContext(ctx, query, b.ShopID, b.Number, pq.Array(b.VehicleIDs), b.CustomerID, b.StartDate, b.EndDate,
		b.RentAmount, b.DepositAmount, b.TotalAmount, b.Status, b.PaymentStatus, b.PaidAmount, b.Remaining, b.PaymentMethod,
		b.Notes, b.CreatedOn, b.UpdatedOn).Scan(&b.ID)
	if err != nil {
		return err
	}

	if err := holdVehicles(ctx, tx, b); err != nil {
		return err
	}
	for _, e := range b.History {
		if err := insertHistory(ctx, tx, b.ID, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// holdVehicles rewrites the booking_vehicles rows of b. The exclusion
// constraint on that table rejects overlapping holds.
func holdVehicles(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_vehicles WHERE booking_id = $1`, b.ID); err != nil {
		return err
	}
	for _, vid := range b.VehicleIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO booking_vehicles (booking_id, vehicle_id, period, holds) VALUES ($1, $2, tstzrange($3, $4, '[)'), $5)`,
			b.ID, vid, b.StartDate, b.EndDate, b.HoldsVehicles())
		if pqCode(err) == codeExclusionViolation {
			return &domain.OverlapError{VehicleID: vid}
		}
		if err != nil {
			return fmt.Errorf("hold vehicle %d: %w", vid, err)
		}
	}
	return nil
}

func insertHistory(ctx context.Context, q queryer, bookingID int32, e domain.HistoryEntry) error {
	_, err := q.ExecContext(ctx, `INSERT INTO booking_history (id, booking_id, actor_id, at, description) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, bookingID, e.ActorID, e.At, e.Description)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND shop_id = $2`
	if err := scanBooking(r.db.QueryRowContext(ctx, query, id, shopID), b); err != nil {
		return nil, notFound(err, "booking", id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, actor_id, at, description FROM booking_history WHERE booking_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.At, &e.Description); err != nil {
			return nil, err
		}
		b.History = append(b.History, e)
	}
	return b, rows.Err()
}

func (r *bookingRepository) ListOverlapping(ctx context.Context, shopID int32, from, to time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE shop_id = $1 AND status NOT IN ('CANCELLED', 'DELETED') AND start_date < $3 AND end_date > $2
	          ORDER BY start_date, id`
	return r.query(ctx, query, shopID, from, to)
}

func (r *bookingRepository) query(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) List(ctx context.Context, shopID int32, f domain.BookingFilter) ([]domain.Booking, int32, error) {
	limit, offset := pageBounds(f.Page, f.PageSize)
	sql := `SELECT ` + bookingColumns + ` FROM bookings WHERE shop_id = $1`
	args := []interface{}{shopID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch f.Status {
	case "":
		sql += " AND status <> 'DELETED'"
	case domain.BookingStatusAdvancePaid:
		sql += " AND status = 'CONFIRMED' AND payment_status = 'PARTIAL'"
	default:
		sql += " AND status = " + next(f.Status)
	}
	if f.VehicleID != 0 {
		sql += " AND " + next(f.VehicleID) + " = ANY(vehicle_ids)"
	}
	if f.CustomerID != 0 {
		sql += " AND customer_id = " + next(f.CustomerID)
	}
	if !f.From.IsZero() {
		sql += " AND end_date > " + next(f.From)
	}
	if !f.To.IsZero() {
		sql += " AND start_date < " + next(f.To)
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM ("+sql+") as sub", args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += " ORDER BY start_date DESC, id DESC LIMIT " + next(limit) + " OFFSET " + next(offset)
	bookings, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

func (r *bookingRepository) Commit(ctx context.Context, m repository.Mutation) error {
	b := &m.Booking
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE bookings SET vehicle_ids=$1, start_date=$2, end_date=$3, rent_amount=$4, deposit_amount=$5, total_amount=$6,
	          status=$7, payment_status=$8, paid_amount=$9, remaining_amount=$10, payment_method=$11, notes=$12,
	          opening_odometer=$13, taken_at=$14, taken_by=$15, closing_odometer=$16, deposit_deduction=$17, refund_amount=$18,
	          damage_notes=$19, returned_at=$20, finalized=$21, cancelled_at=$22, cancel_reason=$23, deleted_at=$24,
	          invoice_number=$25, invoice_pending=$26, updated_on=$27
	          WHERE id=$28 AND shop_id=$29`
	logger.DatabaseCall(ctx, "commit_booking", "UPDATE bookings", "booking_id", b.ID, "status", b.Status)
	res, err := tx.ExecContext(ctx, query, pq.Array(b.VehicleIDs), b.StartDate, b.EndDate, b.RentAmount, b.DepositAmount, b.TotalAmount,
		b.Status, b.PaymentStatus, b.PaidAmount, b.Remaining, b.PaymentMethod, b.Notes,
		b.OpeningOdometer, b.TakenAt, b.TakenBy, b.ClosingOdometer, b.DepositDeduction, b.RefundAmount,
		b.DamageNotes, b.ReturnedAt, b.Finalized, b.CancelledAt, b.CancelReason, b.DeletedAt,
		b.InvoiceNumber, b.InvoicePending, b.UpdatedOn, b.ID, b.ShopID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("booking", b.ID)
	}

	if err := holdVehicles(ctx, tx, b); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, b.ID, m.Entry); err != nil {
		return err
	}

	for _, vc := range m.Vehicles {
		_, err := tx.ExecContext(ctx,
			`UPDATE vehicles SET status = COALESCE(NULLIF($1, ''), status), last_odometer = COALESCE($2, last_odometer), updated_on = $3
			 WHERE id = $4 AND shop_id = $5`,
			string(vc.Status), vc.Odometer, b.UpdatedOn, vc.VehicleID, b.ShopID)
		if err != nil {
			return fmt.Errorf("update vehicle %d: %w", vc.VehicleID, err)
		}
		for i := range vc.Damages {
			if _, err := insertDamage(ctx, tx, b.ShopID, &vc.Damages[i]); err != nil {
				return err
			}
		}
	}

	if p := m.Payment; p != nil {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO payments (shop_id, booking_id, amount, kind, method, recorded_by, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			b.ShopID, b.ID, p.Amount, p.Kind, p.Method, p.RecordedBy, p.RecordedAt).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	return tx.Commit()
}

func (r *bookingRepository) ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shop_id, booking_id, amount, kind, method, recorded_by, recorded_at FROM payments
		 WHERE shop_id = $1 AND booking_id = $2 ORDER BY recorded_at, id`, shopID, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.ShopID, &p.BookingID, &p.Amount, &p.Kind, &p.Method, &p.RecordedBy, &p.RecordedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *bookingRepository) ListInvoicePending(ctx context.Context, limit int32) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE invoice_pending AND status = 'COMPLETED' ORDER BY id LIMIT $1`
	return r.query(ctx, query, limit)
}
