package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, shop_id, name, phone, id_proof_type, id_proof_number, verification, created_on, updated_on`

func scanCustomer(row interface{ Scan(...any) error }, c *domain.Customer) error {
	return row.Scan(&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.IDProofType, &c.IDProofNumber, &c.Verification, &c.CreatedOn, &c.UpdatedOn)
}

func insertCustomer(ctx context.Context, q queryer, c *domain.Customer) error {
	query := `INSERT INTO customers (shop_id, name, phone, id_proof_type, id_proof_number, verification, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	if err := q.QueryRowContext(ctx, query, c.ShopID, c.Name, c.Phone, c.IDProofType, c.IDProofNumber, c.Verification, now, now).Scan(&c.ID); err != nil {
		return err
	}
	c.CreatedOn, c.UpdatedOn = now, now
	return nil
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	return insertCustomer(ctx, r.db, c)
}

func (r *customerRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND shop_id = $2`
	if err := scanCustomer(r.db.QueryRowContext(ctx, query, id, shopID), c); err != nil {
		return nil, notFound(err, "customer", id)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET name=$1, phone=$2, id_proof_type=$3, id_proof_number=$4, verification=$5, updated_on=$6
	          WHERE id=$7 AND shop_id=$8`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Phone, c.IDProofType, c.IDProofNumber, c.Verification, now, c.ID, c.ShopID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("customer", c.ID)
	}
	c.UpdatedOn = now
	return nil
}

// List matches query against name and phone.
func (r *customerRepository) List(ctx context.Context, shopID int32, query string, page, pageSize int32) ([]domain.Customer, int32, error) {
	limit, offset := pageBounds(page, pageSize)
	sql := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id = $1`
	args := []interface{}{shopID}
	argIdx := 2
	if query != "" {
		sql += fmt.Sprintf(" AND (name ILIKE $%d OR phone LIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+query+"%")
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM ("+sql+") as sub", args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, count, rows.Err()
}
