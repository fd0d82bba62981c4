package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/gateway"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/lock"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	"github.com/sirupsen/logrus"
)

const (
	initLockTTL = time.Minute
	// amountTolerance absorbs decimal formatting differences from the gateway.
	amountTolerance = 0.01
)

// BookingReader is the slice of the booking store the payment flow needs.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

// UserReader supplies the customer details sent to the gateway.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type InitResult struct {
	RedirectURL   string
	TransactionID string
}

// CallbackInput carries what the gateway redirect reported. None of it is
// trusted until the gateway's validation API confirms it.
type CallbackInput struct {
	TransactionID string
	Amount        string
	Status        string
	ValidationID  string
}

type Service interface {
	Init(ctx context.Context, bookingID, touristID string) (*InitResult, error)
	HandleCallback(ctx context.Context, in CallbackInput) (*Payment, error)
	HandleFail(ctx context.Context, transactionID string) error
	CheckStatus(ctx context.Context, transactionID, touristID string) (*Payment, error)
}

type service struct {
	repo     Repository
	bookings BookingReader
	users    UserReader
	gateway  gateway.Client
	locker   lock.Locker
	now      func() time.Time
}

func NewService(repo Repository, bookings BookingReader, users UserReader, gw gateway.Client, locker lock.Locker) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
		users:    users,
		gateway:  gw,
		locker:   locker,
		now:      time.Now,
	}
}

func (s *service) Init(ctx context.Context, bookingID, touristID string) (*InitResult, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TouristID != touristID {
		return nil, ErrNotAuthorized
	}
	if b.Status != booking.StatusConfirmed {
		return nil, ErrBookingNotConfirmed
	}
	if b.PaymentStatus == booking.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	release, err := s.locker.Acquire(ctx, "payment-init:"+b.ID, initLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrInitInProgress
		}
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	defer release()

	tourist, err := s.users.GetByID(ctx, touristID)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		BookingID:     b.ID,
		TouristID:     touristID,
		Amount:        b.TotalPrice,
		Status:        StatusPending,
		TransactionID: NewTransactionID(s.now(), b.ID),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id":     b.ID,
		"transaction_id": p.TransactionID,
	})

	redirectURL, err := s.gateway.Init(ctx, gateway.InitRequest{
		Amount:          p.Amount,
		TransactionID:   p.TransactionID,
		CustomerName:    tourist.Name,
		CustomerEmail:   tourist.Email,
		CustomerPhone:   orNA(tourist.Phone),
		CustomerAddress: orNA(tourist.Address),
	})
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, p.TransactionID, false); markErr != nil {
			log.WithError(markErr).Error("failed to mark payment failed after gateway error")
		}
		metrics.PaymentOutcomes.WithLabelValues("init_failed").Inc()
		log.WithError(err).Warn("gateway session creation failed")
		return nil, err
	}

	metrics.PaymentOutcomes.WithLabelValues("initiated").Inc()
	log.Info("payment initiated")
	return &InitResult{RedirectURL: redirectURL, TransactionID: p.TransactionID}, nil
}

func (s *service) HandleCallback(ctx context.Context, in CallbackInput) (*Payment, error) {
	if in.TransactionID == "" {
		return nil, ErrTransactionIDRequired
	}

	p, err := s.repo.GetByTransactionID(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id":      p.BookingID,
		"transaction_id":  p.TransactionID,
		"reported_amount": in.Amount,
		"reported_status": in.Status,
	})

	if p.Status == StatusPaid {
		metrics.PaymentOutcomes.WithLabelValues("duplicate").Inc()
		log.Info("callback for settled payment ignored")
		return p, nil
	}

	if !isSuccessStatus(in.Status) {
		s.markFailed(ctx, log, p)
		return nil, ErrPaymentFailed
	}
	if in.ValidationID == "" {
		s.markFailed(ctx, log, p)
		return nil, ErrValidationFailed
	}

	result, err := s.gateway.Validate(ctx, in.ValidationID)
	if err != nil {
		s.markFailed(ctx, log, p)
		return nil, err
	}
	if reason := mismatch(p, result); reason != "" {
		log.WithField("reason", reason).Warn("gateway validation rejected payment")
		s.markFailed(ctx, log, p)
		return nil, ErrValidationFailed
	}

	paid, err := s.repo.MarkPaid(ctx, p.TransactionID, in.ValidationID)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, paid.BookingID)
	if err == nil && (b.Status == booking.StatusCancelled || b.Status == booking.StatusDeclined) {
		log.WithField("booking_status", b.Status).Warn("payment settled for a closed booking, refund required")
	}

	metrics.PaymentOutcomes.WithLabelValues("paid").Inc()
	log.Info("payment settled")
	return paid, nil
}

func (s *service) HandleFail(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return nil
	}

	p, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil
		}
		return err
	}
	if p.Status == StatusPaid {
		return nil
	}

	changed, err := s.repo.MarkFailed(ctx, transactionID, true)
	if err != nil {
		return err
	}
	if changed {
		metrics.PaymentOutcomes.WithLabelValues("failed").Inc()
		logger.FromContext(ctx).WithFields(logrus.Fields{
			"booking_id":     p.BookingID,
			"transaction_id": transactionID,
		}).Info("payment marked failed")
	}
	return nil
}

// CheckStatus hides other tourists' payments behind ErrNotFound.
func (s *service) CheckStatus(ctx context.Context, transactionID, touristID string) (*Payment, error) {
	if transactionID == "" {
		return nil, ErrTransactionIDRequired
	}

	p, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if p.TouristID != touristID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *service) markFailed(ctx context.Context, log *logrus.Entry, p *Payment) {
	changed, err := s.repo.MarkFailed(ctx, p.TransactionID, false)
	if err != nil {
		log.WithError(err).Error("failed to mark payment failed")
		return
	}
	if changed {
		metrics.PaymentOutcomes.WithLabelValues("failed").Inc()
	}
}

// mismatch explains why a validation result does not corroborate p, or
// returns "" when it does.
func mismatch(p *Payment, r *gateway.ValidationResult) string {
	switch {
	case !r.Valid():
		return "status " + r.Status
	case r.TranID != "" && r.TranID != p.TransactionID:
		return "transaction id " + r.TranID
	case r.HasAmount && math.Abs(r.Amount-p.Amount) > amountTolerance:
		return fmt.Sprintf("amount %.2f", r.Amount)
	}
	return ""
}

// isSuccessStatus accepts our own callback marker as well as the gateway's
// form status. Either way the validation API has the final say.
func isSuccessStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "VALID", "VALIDATED":
		return true
	}
	return false
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
