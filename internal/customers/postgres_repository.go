package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores customers in the relational database.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithDB(conn db) *PostgresRepository {
	return &PostgresRepository{pool: conn}
}

const customerColumns = `id::text, name, email, phone, address, booking_count, last_booking_date, created_at`

// Search matches name, email or phone case-insensitively.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sql := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%'
		ORDER BY name, id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("customers: search: %w", err)
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers: search rows: %w", err)
	}
	return out, nil
}

// Get fetches a customer by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCustomerNotFound
	}
	sql := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customers: select failed: %w", err)
	}
	return c, nil
}

// UpsertByEmail inserts a customer or refreshes the one sharing the email.
func (r *PostgresRepository) UpsertByEmail(ctx context.Context, req UpsertRequest) (*Customer, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sql := `
		INSERT INTO customers (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), customers.address)
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.pool.QueryRow(ctx, sql, uuid.New(), req.Name, req.Email, req.Phone, req.Address))
	if err != nil {
		return nil, fmt.Errorf("customers: upsert failed: %w", err)
	}
	return c, nil
}

// RecordBooking bumps the booking count and latest booking date.
func (r *PostgresRepository) RecordBooking(ctx context.Context, id, date string) error {
	sql := `
		UPDATE customers
		SET booking_count = booking_count + 1,
			last_booking_date = GREATEST(last_booking_date, $2::date)
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, sql, id, date)
	if err != nil {
		return fmt.Errorf("customers: record booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c        Customer
		phone    pgtype.Text
		address  pgtype.Text
		lastDate pgtype.Date
		created  time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &address, &c.BookingCount, &lastDate, &created); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Address = address.String
	if lastDate.Valid {
		c.LastBookingDate = lastDate.Time.Format("2006-01-02")
	}
	c.CreatedAt = created
	return &c, nil
}
