package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/tour-booking-backend/internal/db"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
)

type Repository interface {
	// Create inserts b and reserves b.Date on the listing in one transaction.
	// It returns ErrDateUnavailable, writing nothing, if the date is already taken.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Transition moves b to the given status only if the stored status still
	// equals b.Status. On success b is updated in place; otherwise it returns
	// ErrConcurrentUpdate.
	Transition(ctx context.Context, b *Booking, to Status, opts TransitionOptions) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.listing_id", "l.title", "b.guide_id", "b.tourist_id", "b.date", "b.guest_count",
	"b.total_price", "b.status", "b.payment_status", "b.transaction_id", "b.created_at", "b.updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.ListingID, &b.ListingTitle, &b.GuideID, &b.TouristID, &b.Date, &b.GuestCount,
		&b.TotalPrice, &b.Status, &b.PaymentStatus, &b.TransactionID, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		reserved, err := listing.ReserveDate(ctx, tx, b.ListingID, b.Date)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrDateUnavailable
		}

		query, args, err := psql.Insert("public.bookings").
			Columns(
				"listing_id", "guide_id", "tourist_id", "date", "guest_count",
				"total_price", "status", "payment_status",
			).
			Values(
				b.ListingID, b.GuideID, b.TouristID, listing.Day(b.Date), b.GuestCount,
				b.TotalPrice, b.Status, b.PaymentStatus,
			).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create booking query failed: %w", err)
		}

		if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return fmt.Errorf("create booking failed: %w", err)
		}
		return nil
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.listings l ON b.listing_id = l.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings b").
		Join("public.listings l ON b.listing_id = l.id")

	if filter.TouristID != "" {
		query = query.Where(squirrel.Eq{"b.tourist_id": filter.TouristID})
	}
	if filter.GuideID != "" {
		query = query.Where(squirrel.Eq{"b.guide_id": filter.GuideID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("b.created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Transition(ctx context.Context, b *Booking, to Status, opts TransitionOptions) error {
	update := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID, "status": b.Status})
	if opts.SetPaymentStatus != "" {
		update = update.Set("payment_status", opts.SetPaymentStatus)
	}
	if opts.RequireUnpaid {
		update = update.Where(squirrel.NotEq{"payment_status": PaymentPaid})
	}

	query, args, err := update.Suffix("RETURNING payment_status, updated_at").ToSql()
	if err != nil {
		return fmt.Errorf("build transition query failed: %w", err)
	}

	var paymentStatus PaymentStatus
	updatedAt := b.UpdatedAt
	err = db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&paymentStatus, &updatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrConcurrentUpdate
			}
			return fmt.Errorf("transition booking failed: %w", err)
		}

		if opts.RestoreDate {
			return listing.RestoreDate(ctx, tx, b.ListingID, b.Date)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.Status = to
	b.PaymentStatus = paymentStatus
	b.UpdatedAt = updatedAt
	return nil
}
