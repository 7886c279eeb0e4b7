package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type availabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

// Block is idempotent per (vehicle, date); a second block only updates the reason.
func (r *availabilityRepository) Block(ctx context.Context, o *domain.AvailabilityOverride) error {
	query := `INSERT INTO availability_overrides (shop_id, vehicle_id, date, reason, created_by, created_on)
	          SELECT $1, $2, $3, $4, $5, $6 WHERE EXISTS (SELECT 1 FROM vehicles WHERE id = $2 AND shop_id = $1)
	          ON CONFLICT (vehicle_id, date) DO UPDATE SET reason = EXCLUDED.reason`
	if o.CreatedOn.IsZero() {
		o.CreatedOn = time.Now()
	}
	res, err := r.db.ExecContext(ctx, query, o.ShopID, o.VehicleID, o.Date, o.Reason, o.CreatedBy, o.CreatedOn)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("vehicle", o.VehicleID)
	}
	return nil
}

func (r *availabilityRepository) Unblock(ctx context.Context, shopID, vehicleID int32, date string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_overrides WHERE shop_id = $1 AND vehicle_id = $2 AND date = $3`, shopID, vehicleID, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("availability override", date)
	}
	return nil
}

func (r *availabilityRepository) ListRange(ctx context.Context, shopID int32, from, to string) ([]domain.AvailabilityOverride, error) {
	query := `SELECT shop_id, vehicle_id, to_char(date, 'YYYY-MM-DD'), reason, created_by, created_on
	          FROM availability_overrides WHERE shop_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date, vehicle_id`
	rows, err := r.db.QueryContext(ctx, query, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AvailabilityOverride
	for rows.Next() {
		var o domain.AvailabilityOverride
		if err := rows.Scan(&o.ShopID, &o.VehicleID, &o.Date, &o.Reason, &o.CreatedBy, &o.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *availabilityRepository) PurgeBefore(ctx context.Context, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_overrides WHERE date < $1`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
