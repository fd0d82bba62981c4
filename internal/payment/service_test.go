package payment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/gateway"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/lock"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	touristID = "tourist-1"
	bookingID = "booking-1"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Init(ctx context.Context, req gateway.InitRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) Validate(ctx context.Context, validationID string) (*gateway.ValidationResult, error) {
	args := m.Called(ctx, validationID)
	res, _ := args.Get(0).(*gateway.ValidationResult)
	return res, args.Error(1)
}

// memStore holds payments and bookings together so settlement can be
// observed on both, as the SQL repository does in one transaction.
type memStore struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
	payments map[string]*Payment
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]*booking.Booking{},
		payments: map[string]*Payment{},
	}
}

func (m *memStore) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.TransactionID]; ok {
		return ErrDuplicateTransaction
	}
	b, ok := m.bookings[p.BookingID]
	if !ok {
		return booking.ErrNotFound
	}
	m.seq++
	p.ID = fmt.Sprintf("payment-%d", m.seq)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.payments[p.TransactionID] = &cp
	txID := p.TransactionID
	b.TransactionID = &txID
	return nil
}

func (m *memStore) GetByTransactionID(_ context.Context, txID string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[txID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) MarkPaid(_ context.Context, txID, validationID string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[txID]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != StatusPaid {
		p.Status = StatusPaid
		p.ValidationID = &validationID
		b := m.bookings[p.BookingID]
		b.PaymentStatus = booking.PaymentPaid
		if b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed {
			b.Status = booking.StatusConfirmed
		}
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) MarkFailed(_ context.Context, txID string, mirror bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[txID]
	if !ok || p.Status == StatusPaid {
		return false, nil
	}
	p.Status = StatusFailed
	if b := m.bookings[p.BookingID]; mirror && b.PaymentStatus != booking.PaymentPaid {
		b.PaymentStatus = booking.PaymentFailed
	}
	return true, nil
}

func (m *memStore) bookingSnapshot(id string) booking.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

type userReader struct{}

func (userReader) GetByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, Name: "Tess Tourist", Email: "tess@example.com", Role: user.RoleTourist}, nil
}

type fixture struct {
	store   *memStore
	gateway *mockGateway
	svc     *service
}

func newFixture(t *testing.T, status booking.Status) *fixture {
	t.Helper()
	store := newMemStore()
	store.bookings[bookingID] = &booking.Booking{
		ID:            bookingID,
		GuideID:       "guide-1",
		TouristID:     touristID,
		TotalPrice:    250,
		Status:        status,
		PaymentStatus: booking.PaymentPending,
	}
	gw := &mockGateway{}
	svc := NewService(store, store, userReader{}, gw, lock.NewLocalLocker()).(*service)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	t.Cleanup(func() { gw.AssertExpectations(t) })
	return &fixture{store: store, gateway: gw, svc: svc}
}

const wantTxID = "txn_1700000000000_booking-1"

func (f *fixture) initPayment(t *testing.T) string {
	t.Helper()
	f.gateway.On("Init", mock.Anything, mock.MatchedBy(func(r gateway.InitRequest) bool {
		return r.TransactionID == wantTxID && r.Amount == 250 && r.CustomerPhone == "N/A"
	})).Return("https://gateway.example/pay/abc", nil).Once()

	res, err := f.svc.Init(context.Background(), bookingID, touristID)
	require.NoError(t, err)
	return res.TransactionID
}

func validResult(txID string, amount float64) *gateway.ValidationResult {
	return &gateway.ValidationResult{Status: "VALID", TranID: txID, Amount: amount, HasAmount: true, ValidationID: "val-1"}
}

func TestInit(t *testing.T) {
	f := newFixture(t, booking.StatusConfirmed)

	txID := f.initPayment(t)
	assert.Equal(t, wantTxID, txID)

	p, err := f.store.GetByTransactionID(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, 250.0, p.Amount)

	b := f.store.bookingSnapshot(bookingID)
	require.NotNil(t, b.TransactionID)
	assert.Equal(t, txID, *b.TransactionID)
}

func TestInitRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		_, err := f.svc.Init(ctx, "nope", touristID)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("other tourist", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		_, err := f.svc.Init(ctx, bookingID, "tourist-2")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("not confirmed", func(t *testing.T) {
		f := newFixture(t, booking.StatusPending)
		_, err := f.svc.Init(ctx, bookingID, touristID)
		assert.ErrorIs(t, err, ErrBookingNotConfirmed)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		f.store.bookings[bookingID].PaymentStatus = booking.PaymentPaid
		_, err := f.svc.Init(ctx, bookingID, touristID)
		assert.ErrorIs(t, err, ErrAlreadyPaid)
	})

	t.Run("in progress", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		release, err := f.svc.locker.Acquire(ctx, "payment-init:"+bookingID, time.Minute)
		require.NoError(t, err)
		defer release()

		_, err = f.svc.Init(ctx, bookingID, touristID)
		assert.ErrorIs(t, err, ErrInitInProgress)
	})
}

func TestInitGatewayFailureMarksPaymentFailed(t *testing.T) {
	f := newFixture(t, booking.StatusConfirmed)
	f.gateway.On("Init", mock.Anything, mock.Anything).Return("", gateway.ErrInitFailed).Once()

	_, err := f.svc.Init(context.Background(), bookingID, touristID)
	assert.ErrorIs(t, err, gateway.ErrInitFailed)

	p, err := f.store.GetByTransactionID(context.Background(), wantTxID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, booking.PaymentPending, f.store.bookingSnapshot(bookingID).PaymentStatus)
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, booking.StatusConfirmed)
	txID := f.initPayment(t)

	f.gateway.On("Validate", mock.Anything, "val-1").Return(validResult(txID, 250), nil).Once()

	p, err := f.svc.HandleCallback(ctx, CallbackInput{
		TransactionID: txID,
		Amount:        "1.00",
		Status:        "success",
		ValidationID:  "val-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, p.Status)
	require.NotNil(t, p.ValidationID)
	assert.Equal(t, "val-1", *p.ValidationID)

	b := f.store.bookingSnapshot(bookingID)
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, booking.StatusConfirmed, b.Status)

	// A repeated callback is a no-op and does not hit the gateway again.
	again, err := f.svc.HandleCallback(ctx, CallbackInput{TransactionID: txID, Status: "success", ValidationID: "val-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, again.Status)

	// Fail and cancel callbacks never downgrade a settled payment.
	require.NoError(t, f.svc.HandleFail(ctx, txID))
	p, err = f.store.GetByTransactionID(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, p.Status)
	assert.Equal(t, booking.PaymentPaid, f.store.bookingSnapshot(bookingID).PaymentStatus)

	_, err = f.svc.Init(ctx, bookingID, touristID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestCallbackRejectsUncorroboratedPayment(t *testing.T) {
	cases := []struct {
		name   string
		result func(txID string) *gateway.ValidationResult
	}{
		{
			name:   "invalid status",
			result: func(string) *gateway.ValidationResult { return &gateway.ValidationResult{Status: "INVALID_TRANSACTION"} },
		},
		{
			name:   "amount mismatch",
			result: func(txID string) *gateway.ValidationResult { return validResult(txID, 10) },
		},
		{
			name:   "transaction mismatch",
			result: func(string) *gateway.ValidationResult { return validResult("txn_other", 250) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, booking.StatusConfirmed)
			txID := f.initPayment(t)
			f.gateway.On("Validate", mock.Anything, "val-1").Return(tc.result(txID), nil).Once()

			_, err := f.svc.HandleCallback(ctx, CallbackInput{TransactionID: txID, Status: "success", ValidationID: "val-1"})
			assert.ErrorIs(t, err, ErrValidationFailed)

			p, err := f.store.GetByTransactionID(ctx, txID)
			require.NoError(t, err)
			assert.Equal(t, StatusFailed, p.Status)
			assert.Equal(t, booking.PaymentPending, f.store.bookingSnapshot(bookingID).PaymentStatus)
		})
	}
}

func TestCallbackFailurePaths(t *testing.T) {
	ctx := context.Background()

	t.Run("non-success status", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		txID := f.initPayment(t)

		_, err := f.svc.HandleCallback(ctx, CallbackInput{TransactionID: txID, Status: "failed", ValidationID: "val-1"})
		assert.ErrorIs(t, err, ErrPaymentFailed)
		f.gateway.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
	})

	t.Run("validation transport error", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		txID := f.initPayment(t)
		f.gateway.On("Validate", mock.Anything, "val-1").Return(nil, gateway.ErrValidation).Once()

		_, err := f.svc.HandleCallback(ctx, CallbackInput{TransactionID: txID, Status: "VALID", ValidationID: "val-1"})
		assert.ErrorIs(t, err, gateway.ErrValidation)

		p, err := f.store.GetByTransactionID(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, p.Status)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		_, err := f.svc.HandleCallback(ctx, CallbackInput{TransactionID: "txn_missing", Status: "success"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing transaction id", func(t *testing.T) {
		f := newFixture(t, booking.StatusConfirmed)
		_, err := f.svc.HandleCallback(ctx, CallbackInput{Status: "success"})
		assert.ErrorIs(t, err, ErrTransactionIDRequired)
	})
}

func TestRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, booking.StatusConfirmed)
	first := f.initPayment(t)

	require.NoError(t, f.svc.HandleFail(ctx, first))
	assert.Equal(t, booking.PaymentFailed, f.store.bookingSnapshot(bookingID).PaymentStatus)

	f.svc.now = func() time.Time { return time.UnixMilli(1700000005000) }
	f.gateway.On("Init", mock.Anything, mock.Anything).Return("https://gateway.example/pay/def", nil).Once()
	res, err := f.svc.Init(ctx, bookingID, touristID)
	require.NoError(t, err)
	assert.NotEqual(t, first, res.TransactionID)

	f.gateway.On("Validate", mock.Anything, "val-2").Return(validResult(res.TransactionID, 250), nil).Once()
	_, err = f.svc.HandleCallback(ctx, CallbackInput{TransactionID: res.TransactionID, Status: "success", ValidationID: "val-2"})
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPaid, f.store.bookingSnapshot(bookingID).PaymentStatus)
}

func TestHandleFailIgnoresUnknownTransaction(t *testing.T) {
	f := newFixture(t, booking.StatusConfirmed)
	assert.NoError(t, f.svc.HandleFail(context.Background(), ""))
	assert.NoError(t, f.svc.HandleFail(context.Background(), "txn_missing"))
}

func TestCheckStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, booking.StatusConfirmed)
	txID := f.initPayment(t)

	p, err := f.svc.CheckStatus(ctx, txID, touristID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, bookingID, p.BookingID)

	_, err = f.svc.CheckStatus(ctx, txID, "tourist-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CheckStatus(ctx, "", touristID)
	assert.ErrorIs(t, err, ErrTransactionIDRequired)
}

func TestConcurrentInitSingleSession(t *testing.T) {
	f := newFixture(t, booking.StatusConfirmed)
	gate := make(chan struct{})
	f.gateway.On("Init", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).
		Return("https://gateway.example/pay/abc", nil).Once()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Init(context.Background(), bookingID, touristID)
			errs <- err
		}()
	}

	// Every loser returns before the winner's gateway call is unblocked.
	for i := 0; i < n-1; i++ {
		assert.ErrorIs(t, <-errs, ErrInitInProgress)
	}
	close(gate)
	wg.Wait()
	assert.NoError(t, <-errs)
}

func TestIsSuccessStatus(t *testing.T) {
	for _, s := range []string{"success", "SUCCESS", "VALID", "validated"} {
		assert.True(t, isSuccessStatus(s), s)
	}
	for _, s := range []string{"", "FAILED", "CANCELLED"} {
		assert.False(t, isSuccessStatus(s), s)
	}
}
