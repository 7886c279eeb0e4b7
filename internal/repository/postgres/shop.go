package postgres

import (
	"context"
	"database/sql"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type shopRepository struct {
	db *sql.DB
}

func NewShopRepository(db *sql.DB) repository.ShopRepository {
	return &shopRepository{db: db}
}

const shopColumns = `id, name, address, phone, timezone, currency, booking_seq, to_char(created_on, 'YYYY-MM-DD')`

func scanShop(row interface{ Scan(...any) error }, s *domain.Shop) error {
	return row.Scan(&s.ID, &s.Name, &s.Address, &s.Phone, &s.Timezone, &s.Currency, &s.BookingSeq, &s.CreatedOn)
}

func (r *shopRepository) GetByID(ctx context.Context, id int32) (*domain.Shop, error) {
	s := &domain.Shop{}
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`
	if err := scanShop(r.db.QueryRowContext(ctx, query, id), s); err != nil {
		return nil, notFound(err, "shop", id)
	}
	return s, nil
}

func (r *shopRepository) List(ctx context.Context) ([]domain.Shop, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shopColumns+` FROM shops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		var s domain.Shop
		if err := scanShop(rows, &s); err != nil {
			return nil, err
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}
