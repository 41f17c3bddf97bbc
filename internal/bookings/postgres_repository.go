package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithDB(conn db) *PostgresRepository {
	return &PostgresRepository{pool: conn}
}

const bookingColumns = `id::text, COALESCE(customer_id::text, ''), customer_name, customer_email, customer_phone,
	service, team_member_id, to_char(booking_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'),
	duration_minutes, status, payment_status, amount::float8, address, notes, created_at, updated_at`

// List returns bookings matching f ordered by date and time.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", string(f.PaymentStatus))
	}
	if f.Date != "" {
		add("booking_date = $%d::date", f.Date)
	}
	if f.StartDate != "" {
		add("booking_date >= $%d::date", f.StartDate)
	}
	if f.EndDate != "" {
		add("booking_date <= $%d::date", f.EndDate)
	}
	if f.TeamMemberID != "" {
		add("team_member_id = $%d", f.TeamMemberID)
	}

	sql := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, " AND ")
	}
	sql += ` ORDER BY booking_date, start_time, id`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list rows: %w", err)
	}
	return out, nil
}

// Get fetches a booking by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBookingNotFound
	}
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// Create inserts b inside a transaction holding the member/date advisory lock.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking, guard Guard) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkSlot(ctx, tx, b, "", guard); err != nil {
		return err
	}

	sql := `
		INSERT INTO bookings (id, customer_id, customer_name, customer_email, customer_phone, service,
			team_member_id, booking_date, start_time, duration_minutes, status, payment_status, amount, address, notes)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8::date, $9::time, $10, $11, $12, $13, $14, $15)
		RETURNING ` + bookingColumns
	saved, err := scanBooking(tx.QueryRow(ctx, sql,
		uuid.New(), b.CustomerID, b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Service,
		b.TeamMemberID, b.Date, b.Time, b.DurationMinutes, string(b.Status), string(b.PaymentStatus),
		b.Amount, b.Address, b.Notes,
	))
	if err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	*b = *saved
	return nil
}

// Update replaces the booking row with b.
func (r *PostgresRepository) Update(ctx context.Context, b *Booking, guard Guard) error {
	if _, err := uuid.Parse(b.ID); err != nil {
		return ErrBookingNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkSlot(ctx, tx, b, b.ID, guard); err != nil {
		return err
	}

	sql := `
		UPDATE bookings SET
			customer_id = NULLIF($2, '')::uuid,
			customer_name = $3,
			customer_email = $4,
			customer_phone = $5,
			service = $6,
			team_member_id = $7,
			booking_date = $8::date,
			start_time = $9::time,
			duration_minutes = $10,
			status = $11,
			payment_status = $12,
			amount = $13,
			address = $14,
			notes = $15,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns
	saved, err := scanBooking(tx.QueryRow(ctx, sql,
		b.ID, b.CustomerID, b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Service,
		b.TeamMemberID, b.Date, b.Time, b.DurationMinutes, string(b.Status), string(b.PaymentStatus),
		b.Amount, b.Address, b.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("bookings: update failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	*b = *saved
	return nil
}

// Delete removes a booking.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrBookingNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bookings: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Appointments implements availability.AppointmentSource.
func (r *PostgresRepository) Appointments(ctx context.Context, teamMemberID, startDate, endDate string) ([]availability.Appointment, error) {
	sql := `
		SELECT to_char(booking_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), duration_minutes
		FROM bookings
		WHERE team_member_id = $1 AND booking_date BETWEEN $2::date AND $3::date AND status <> 'cancelled'
		ORDER BY booking_date, start_time
	`
	rows, err := r.pool.Query(ctx, sql, teamMemberID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("bookings: appointments: %w", err)
	}
	return collectAppointments(rows)
}

// checkSlot takes the transaction-scoped advisory lock for the booking's
// member and date, then hands the other active appointments to guard.
func checkSlot(ctx context.Context, q querier, b *Booking, excludeID string, guard Guard) error {
	if guard == nil {
		return nil
	}
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(b)); err != nil {
		return fmt.Errorf("bookings: lock slot: %w", err)
	}
	sql := `
		SELECT to_char(booking_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), duration_minutes
		FROM bookings
		WHERE team_member_id = $1 AND booking_date = $2::date AND status <> 'cancelled' AND id::text <> $3
		ORDER BY start_time
	`
	rows, err := q.Query(ctx, sql, b.TeamMemberID, b.Date, excludeID)
	if err != nil {
		return fmt.Errorf("bookings: load day: %w", err)
	}
	existing, err := collectAppointments(rows)
	if err != nil {
		return err
	}
	return guard(existing)
}

func lockKey(b *Booking) string {
	return b.TeamMemberID + "|" + b.Date
}

func collectAppointments(rows pgx.Rows) ([]availability.Appointment, error) {
	defer rows.Close()
	var out []availability.Appointment
	for rows.Next() {
		var a availability.Appointment
		if err := rows.Scan(&a.Date, &a.Time, &a.DurationMinutes); err != nil {
			return nil, fmt.Errorf("bookings: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: appointment rows: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b             Booking
		status        string
		paymentStatus string
	)
	if err := row.Scan(
		&b.ID, &b.CustomerID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.Service, &b.TeamMemberID, &b.Date, &b.Time,
		&b.DurationMinutes, &status, &paymentStatus, &b.Amount, &b.Address, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.PaymentStatus = PaymentStatus(paymentStatus)
	return &b, nil
}

var (
	_ Repository                     = (*PostgresRepository)(nil)
	_ availability.AppointmentSource = (*PostgresRepository)(nil)
)
