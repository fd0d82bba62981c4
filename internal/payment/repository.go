package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/db"
)

var ErrDuplicateTransaction = errors.New("transaction id already exists")

// Repository owns the payments table and the booking columns mirrored from it.
// Every method that touches both runs in a single transaction.
type Repository interface {
	// Create inserts p and records its transaction id on the booking.
	Create(ctx context.Context, p *Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	// MarkPaid settles the payment unless it is already PAID and marks the
	// booking PAID and CONFIRMED. A concurrent settlement is not an error;
	// the already-paid row is returned.
	MarkPaid(ctx context.Context, transactionID, validationID string) (*Payment, error)
	// MarkFailed moves a non-PAID payment to FAILED. With mirror set, the
	// booking's payment status becomes FAILED too unless it is PAID.
	// It reports whether the payment row changed.
	MarkFailed(ctx context.Context, transactionID string, mirror bool) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const paymentColumns = "id, booking_id, tourist_id, amount, status, transaction_id, validation_id, created_at, updated_at"

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.TouristID, &p.Amount, &p.Status,
		&p.TransactionID, &p.ValidationID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Payment) error {
	insert, args, err := psql.Insert("public.payments").
		Columns("booking_id", "tourist_id", "amount", "status", "transaction_id").
		Values(p.BookingID, p.TouristID, p.Amount, p.Status, p.TransactionID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create payment query failed: %w", err)
	}

	link, linkArgs, err := psql.Update("public.bookings").
		Set("transaction_id", p.TransactionID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.BookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build link transaction query failed: %w", err)
	}

	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insert, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			var e *pgconn.PgError
			if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
				return ErrDuplicateTransaction
			}
			return fmt.Errorf("create payment failed: %w", err)
		}

		ct, err := tx.Exec(ctx, link, linkArgs...)
		if err != nil {
			return fmt.Errorf("link transaction to booking failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return booking.ErrNotFound
		}
		return nil
	})
}

func (r *pgxRepository) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	query, args, err := psql.Select(paymentColumns).
		From("public.payments").
		Where(squirrel.Eq{"transaction_id": transactionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get payment query failed: %w", err)
	}

	p, err := scanPayment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) MarkPaid(ctx context.Context, transactionID, validationID string) (*Payment, error) {
	settle, args, err := psql.Update("public.payments").
		Set("status", StatusPaid).
		Set("validation_id", validationID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"transaction_id": transactionID}).
		Where(squirrel.NotEq{"status": StatusPaid}).
		Suffix("RETURNING " + paymentColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build settle payment query failed: %w", err)
	}

	var p *Payment
	err = db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err = scanPayment(tx.QueryRow(ctx, settle, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			// Already settled by a concurrent callback, or missing.
			p = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("settle payment failed: %w", err)
		}

		// A booking cancelled while the customer was paying keeps its status;
		// the recorded payment is left for a manual refund.
		mirror, mirrorArgs, err := psql.Update("public.bookings").
			Set("payment_status", booking.PaymentPaid).
			Set("status", squirrel.Expr(
				"CASE WHEN status IN (?, ?) THEN ? ELSE status END",
				booking.StatusPending, booking.StatusConfirmed, booking.StatusConfirmed,
			)).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": p.BookingID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build mirror paid query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, mirror, mirrorArgs...); err != nil {
			return fmt.Errorf("mirror paid status failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p == nil {
		return r.GetByTransactionID(ctx, transactionID)
	}
	return p, nil
}

func (r *pgxRepository) MarkFailed(ctx context.Context, transactionID string, mirror bool) (bool, error) {
	fail, args, err := psql.Update("public.payments").
		Set("status", StatusFailed).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"transaction_id": transactionID}).
		Where(squirrel.NotEq{"status": StatusPaid}).
		Suffix("RETURNING booking_id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build fail payment query failed: %w", err)
	}

	changed := false
	err = db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var bookingID string
		if err := tx.QueryRow(ctx, fail, args...).Scan(&bookingID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("fail payment failed: %w", err)
		}
		changed = true

		if !mirror {
			return nil
		}

		query, mirrorArgs, err := psql.Update("public.bookings").
			Set("payment_status", booking.PaymentFailed).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": bookingID}).
			Where(squirrel.NotEq{"payment_status": booking.PaymentPaid}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build mirror failed query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, mirrorArgs...); err != nil {
			return fmt.Errorf("mirror failed status failed: %w", err)
		}
		return nil
	})
	return changed, err
}
