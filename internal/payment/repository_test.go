package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/db/dbtest"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxRepository(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	day := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)

	users := user.NewPgxRepository(pool)
	guide := &user.User{Email: "guide@example.com", PasswordHash: "x", Name: "G", Role: user.RoleGuide, IsActive: true}
	tourist := &user.User{Email: "tourist@example.com", PasswordHash: "x", Name: "T", Role: user.RoleTourist, IsActive: true}
	require.NoError(t, users.Create(ctx, guide))
	require.NoError(t, users.Create(ctx, tourist))

	l := &listing.Listing{
		GuideID:        guide.ID,
		Title:          "River cruise",
		City:           "Khulna",
		Price:          120,
		MaxGroupSize:   6,
		Active:         true,
		AvailableDates: []time.Time{day},
	}
	require.NoError(t, listing.NewPgxRepository(pool).Create(ctx, l))

	bookings := booking.NewPgxRepository(pool)
	b := &booking.Booking{
		ListingID:     l.ID,
		GuideID:       guide.ID,
		TouristID:     tourist.ID,
		Date:          day,
		GuestCount:    1,
		TotalPrice:    120,
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
	}
	require.NoError(t, bookings.Create(ctx, b))
	require.NoError(t, bookings.Transition(ctx, b, booking.StatusConfirmed, booking.TransitionOptions{}))

	repo := NewPgxRepository(pool)
	newPayment := func(txID string) *Payment {
		return &Payment{BookingID: b.ID, TouristID: tourist.ID, Amount: 120, Status: StatusPending, TransactionID: txID}
	}

	t.Run("create links the booking", func(t *testing.T) {
		p := newPayment("txn_1_" + b.ID)
		require.NoError(t, repo.Create(ctx, p))
		assert.NotEmpty(t, p.ID)

		stored, err := bookings.GetByID(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.TransactionID)
		assert.Equal(t, p.TransactionID, *stored.TransactionID)

		assert.ErrorIs(t, repo.Create(ctx, newPayment(p.TransactionID)), ErrDuplicateTransaction)
	})

	t.Run("fail mirrors onto the booking", func(t *testing.T) {
		changed, err := repo.MarkFailed(ctx, "txn_1_"+b.ID, true)
		require.NoError(t, err)
		assert.True(t, changed)

		stored, err := bookings.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.PaymentFailed, stored.PaymentStatus)
	})

	t.Run("concurrent settlement is idempotent", func(t *testing.T) {
		txID := "txn_2_" + b.ID
		require.NoError(t, repo.Create(ctx, newPayment(txID)))

		const attempts = 6
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, err := repo.MarkPaid(ctx, txID, "val-1")
				assert.NoError(t, err)
				if p != nil {
					assert.Equal(t, StatusPaid, p.Status)
				}
			}()
		}
		wg.Wait()

		stored, err := bookings.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.PaymentPaid, stored.PaymentStatus)
		assert.Equal(t, booking.StatusConfirmed, stored.Status)
	})

	t.Run("paid payments are never failed", func(t *testing.T) {
		changed, err := repo.MarkFailed(ctx, "txn_2_"+b.ID, true)
		require.NoError(t, err)
		assert.False(t, changed)

		p, err := repo.GetByTransactionID(ctx, "txn_2_"+b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, p.Status)

		stored, err := bookings.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.PaymentPaid, stored.PaymentStatus)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := repo.GetByTransactionID(ctx, "txn_missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
