package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
)

// Open connects to PostgreSQL, retrying with exponential backoff while the
// database is still starting up.
func Open(ctx context.Context, dsn string, retries int, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)

	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("Database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Shops:        NewShopRepository(db),
		Vehicles:     NewVehicleRepository(db),
		Customers:    NewCustomerRepository(db),
		Bookings:     NewBookingRepository(db),
		Availability: NewAvailabilityRepository(db),
	}
}

// notFound turns sql.ErrNoRows into a domain not-found error.
func notFound(err error, kind string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(kind, id)
	}
	return err
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func pageBounds(page, pageSize int32) (limit, offset int32) {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
