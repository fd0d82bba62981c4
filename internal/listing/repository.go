package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/tour-booking-backend/internal/db"
)

// Repository defines data access methods for listings.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*Listing, int, error)
	// AddDates merges dates into the available set and returns the resulting set.
	AddDates(ctx context.Context, id string, dates []time.Time) ([]time.Time, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var listingColumns = []string{
	"l.id", "l.guide_id", "l.title", "l.description", "l.city", "l.category",
	"l.price", "l.max_group_size", "l.active", "l.available_dates", "l.created_at", "l.updated_at",
}

func scanListing(row pgx.Row, extra ...any) (*Listing, error) {
	var l Listing
	dest := []any{
		&l.ID, &l.GuideID, &l.Title, &l.Description, &l.City, &l.Category,
		&l.Price, &l.MaxGroupSize, &l.Active, &l.AvailableDates, &l.CreatedAt, &l.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *pgxRepository) Create(ctx context.Context, l *Listing) error {
	query, args, err := psql.Insert("public.listings").
		Columns(
			"guide_id", "title", "description", "city", "category",
			"price", "max_group_size", "active", "available_dates",
		).
		Values(
			l.GuideID, l.Title, l.Description, l.City, l.Category,
			l.Price, l.MaxGroupSize, l.Active, l.AvailableDates,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create listing query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("create listing failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query, args, err := psql.Select(listingColumns...).
		From("public.listings l").
		Where(squirrel.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get listing query failed: %w", err)
	}

	l, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing failed: %w", err)
	}
	return l, nil
}

func (r *pgxRepository) List(ctx context.Context, filter ListingFilter) ([]*Listing, int, error) {
	query := psql.Select(append(listingColumns, "count(*) OVER() AS total_count")...).
		From("public.listings l")

	if !filter.IncludeInactive {
		query = query.Where(squirrel.Eq{"l.active": true})
	}
	if filter.GuideID != "" {
		query = query.Where(squirrel.Eq{"l.guide_id": filter.GuideID})
	}
	if filter.City != "" {
		query = query.Where(squirrel.ILike{"l.city": "%" + filter.City + "%"})
	}
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"l.category": filter.Category})
	}
	if filter.MinPrice != nil {
		query = query.Where(squirrel.GtOrEq{"l.price": *filter.MinPrice})
	}
	if filter.MaxPrice != nil {
		query = query.Where(squirrel.LtOrEq{"l.price": *filter.MaxPrice})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("l.created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list listings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings failed: %w", err)
	}
	defer rows.Close()

	var listings []*Listing
	var total int
	for rows.Next() {
		l, err := scanListing(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing failed: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listings failed: %w", err)
	}

	return listings, total, nil
}

func (r *pgxRepository) AddDates(ctx context.Context, id string, dates []time.Time) ([]time.Time, error) {
	// Union in SQL so concurrent additions and bookings never produce duplicates.
	query, args, err := psql.Update("public.listings").
		Set("available_dates", squirrel.Expr(
			"ARRAY(SELECT DISTINCT d FROM unnest(available_dates || ?::date[]) AS d ORDER BY d)", dates,
		)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING available_dates").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build add dates query failed: %w", err)
	}

	var out []time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add dates failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) SetActive(ctx context.Context, id string, active bool) error {
	query, args, err := psql.Update("public.listings").
		Set("active", active).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set active query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set listing active failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveDate removes date from an active listing's available set, but only if
// it is present. It reports false when the date was not available. Callers run
// it inside the transaction that records the booking.
func ReserveDate(ctx context.Context, q db.Querier, listingID string, date time.Time) (bool, error) {
	day := Day(date)
	query, args, err := psql.Update("public.listings").
		Set("available_dates", squirrel.Expr("array_remove(available_dates, ?::date)", day)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": listingID, "active": true}).
		Where("?::date = ANY(available_dates)", day).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build reserve date query failed: %w", err)
	}

	ct, err := q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("reserve date failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// RestoreDate puts date back into the listing's available set unless it is already there.
func RestoreDate(ctx context.Context, q db.Querier, listingID string, date time.Time) error {
	day := Day(date)
	query, args, err := psql.Update("public.listings").
		Set("available_dates", squirrel.Expr("array_append(available_dates, ?::date)", day)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": listingID}).
		Where("NOT (?::date = ANY(available_dates))", day).
		ToSql()
	if err != nil {
		return fmt.Errorf("build restore date query failed: %w", err)
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("restore date failed: %w", err)
	}
	return nil
}
