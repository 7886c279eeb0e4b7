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

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

const vehicleColumns = `id, shop_id, name, registration_number, category, daily_price, status, last_odometer, archived, created_on, updated_on`

func scanVehicle(row interface{ Scan(...any) error }, v *domain.Vehicle) error {
	var odo sql.NullInt64
	if err := row.Scan(&v.ID, &v.ShopID, &v.Name, &v.RegistrationNumber, &v.Category, &v.DailyPrice, &v.Status, &odo, &v.Archived, &v.CreatedOn, &v.UpdatedOn); err != nil {
		return err
	}
	if odo.Valid {
		v.LastOdometer = &odo.Int64
	}
	return nil
}

func (r *vehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `INSERT INTO vehicles (shop_id, name, registration_number, category, daily_price, status, last_odometer, archived, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	logger.DatabaseCall(ctx, "create_vehicle", "INSERT INTO vehicles", "shop_id", v.ShopID)
	err := r.db.QueryRowContext(ctx, query, v.ShopID, v.Name, v.RegistrationNumber, v.Category, v.DailyPrice, v.Status, v.LastOdometer, v.Archived, now, now).Scan(&v.ID)
	if pqCode(err) == codeUniqueViolation {
		return domain.Invalid("registration_number", "%s is already registered", v.RegistrationNumber)
	}
	if err != nil {
		return err
	}
	v.CreatedOn, v.UpdatedOn = now, now
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 AND shop_id = $2`
	if err := scanVehicle(r.db.QueryRowContext(ctx, query, id, shopID), v); err != nil {
		return nil, notFound(err, "vehicle", id)
	}
	damages, err := r.damages(ctx, shopID, []int32{id})
	if err != nil {
		return nil, err
	}
	v.Damages = damages[id]
	return v, nil
}

func (r *vehicleRepository) GetMany(ctx context.Context, shopID int32, ids []int32) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE shop_id = $1 AND id = ANY($2) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, shopID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(vehicles) != len(ids) {
		found := make(map[int32]bool, len(vehicles))
		for _, v := range vehicles {
			found[v.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, domain.NotFound("vehicle", id)
			}
		}
	}
	return vehicles, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `UPDATE vehicles SET name=$1, registration_number=$2, category=$3, daily_price=$4, status=$5, last_odometer=$6, archived=$7, updated_on=$8
	          WHERE id=$9 AND shop_id=$10`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, v.Name, v.RegistrationNumber, v.Category, v.DailyPrice, v.Status, v.LastOdometer, v.Archived, now, v.ID, v.ShopID)
	if pqCode(err) == codeUniqueViolation {
		return domain.Invalid("registration_number", "%s is already registered", v.RegistrationNumber)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("vehicle", v.ID)
	}
	v.UpdatedOn = now
	return nil
}

func (r *vehicleRepository) List(ctx context.Context, shopID int32, includeArchived bool) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE shop_id = $1`
	if !includeArchived {
		query += ` AND NOT archived`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *vehicleRepository) AddDamage(ctx context.Context, shopID int32, d *domain.Damage) error {
	res, err := insertDamage(ctx, r.db, shopID, d)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("vehicle", d.VehicleID)
	}
	return nil
}

// insertDamage only inserts when the vehicle belongs to shopID.
func insertDamage(ctx context.Context, q queryer, shopID int32, d *domain.Damage) (sql.Result, error) {
	query := `INSERT INTO vehicle_damages (id, shop_id, vehicle_id, booking_id, type, severity, notes, photos, recorded_by, recorded_at)
	          SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10 WHERE EXISTS (SELECT 1 FROM vehicles WHERE id = $3 AND shop_id = $2)`
	res, err := q.ExecContext(ctx, query, d.ID, shopID, d.VehicleID, d.BookingID, d.Type, d.Severity, d.Notes, pq.Array(d.Photos), d.RecordedBy, d.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("insert damage: %w", err)
	}
	return res, nil
}

func (r *vehicleRepository) damages(ctx context.Context, shopID int32, vehicleIDs []int32) (map[int32][]domain.Damage, error) {
	query := `SELECT id, vehicle_id, booking_id, type, severity, notes, photos, recorded_by, recorded_at
	          FROM vehicle_damages WHERE shop_id = $1 AND vehicle_id = ANY($2) ORDER BY recorded_at, id`
	rows, err := r.db.QueryContext(ctx, query, shopID, pq.Array(vehicleIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int32][]domain.Damage)
	for rows.Next() {
		var d domain.Damage
		var bookingID sql.NullInt32
		if err := rows.Scan(&d.ID, &d.VehicleID, &bookingID, &d.Type, &d.Severity, &d.Notes, pq.Array(&d.Photos), &d.RecordedBy, &d.RecordedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			d.BookingID = &bookingID.Int32
		}
		out[d.VehicleID] = append(out[d.VehicleID], d)
	}
	return out, rows.Err()
}
