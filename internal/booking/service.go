package booking

import (
	"context"
	"errors"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	"github.com/sirupsen/logrus"
)

type CreateRequest struct {
	ListingID   string
	Date        time.Time
	GuestCount  int
	TouristID   string
	TouristRole user.Role
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	// GetByID is restricted to the booking's tourist and guide.
	GetByID(ctx context.Context, id, userID string) (*Booking, error)
	ListForTourist(ctx context.Context, touristID string, filter Filter) ([]*Booking, int, error)
	ListForGuide(ctx context.Context, guideID string, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id, guideID string, status Status) (*Booking, error)
	Cancel(ctx context.Context, id, userID string) (*Booking, error)
	Complete(ctx context.Context, id, guideID string) (*Booking, error)
}

// ListingReader is the part of the listing service bookings depend on.
type ListingReader interface {
	GetByID(ctx context.Context, id string) (*listing.Listing, error)
}

type service struct {
	repo     Repository
	listings ListingReader
	now      func() time.Time
}

func NewService(repo Repository, listings ListingReader) Service {
	return &service{
		repo:     repo,
		listings: listings,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Listing must exist and be active
	l, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	// 2. Only tourists book
	if req.TouristRole != user.RoleTourist {
		return nil, ErrTouristOnly
	}

	// 3. Validate date and group size against the listing
	if req.GuestCount < 1 || req.GuestCount > MaxGuests {
		return nil, ErrGuestCountInvalid
	}
	date := listing.Day(req.Date)
	if !date.After(listing.Day(s.now())) {
		return nil, ErrDateInPast
	}
	if !l.HasDate(date) {
		return nil, ErrDateUnavailable
	}
	if req.GuestCount > l.MaxGroupSize {
		return nil, ErrGroupTooLarge
	}

	b := &Booking{
		ListingID:     l.ID,
		ListingTitle:  l.Title,
		GuideID:       l.GuideID,
		TouristID:     req.TouristID,
		Date:          date,
		GuestCount:    req.GuestCount,
		TotalPrice:    l.Price * float64(req.GuestCount),
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
	}

	// 4. Insert and reserve the date atomically; a concurrent booking may
	// still have taken it since the read above.
	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, ErrDateUnavailable) {
			metrics.BookingDateConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(StatusPending)).Inc()
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id": b.ID,
		"listing_id": b.ListingID,
		"date":       b.Date.Format(listing.DateLayout),
	}).Info("booking created")

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id, userID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return b, nil
}

func (s *service) ListForTourist(ctx context.Context, touristID string, filter Filter) ([]*Booking, int, error) {
	filter.TouristID = touristID
	filter.GuideID = ""
	return s.repo.List(ctx, filter)
}

func (s *service) ListForGuide(ctx context.Context, guideID string, filter Filter) ([]*Booking, int, error) {
	filter.GuideID = guideID
	filter.TouristID = ""
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateStatus(ctx context.Context, id, guideID string, status Status) (*Booking, error) {
	if status != StatusConfirmed && status != StatusDeclined {
		return nil, ErrInvalidTargetStatus
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.GuideID != guideID {
		return nil, ErrNotGuide
	}
	if status == StatusDeclined && b.PaymentStatus == PaymentPaid {
		return nil, ErrDeclinePaid
	}
	if b.Status != StatusPending {
		return nil, ErrNotPending
	}

	opts := TransitionOptions{RequireUnpaid: status == StatusDeclined}
	if err := s.transition(ctx, b, status, opts); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id, userID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if b.PaymentStatus == PaymentPaid {
		return nil, ErrCancelPaid
	}
	if b.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrNotCancellable
	}

	opts := TransitionOptions{RequireUnpaid: true, RestoreDate: true}
	if err := s.transition(ctx, b, StatusCancelled, opts); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Complete(ctx context.Context, id, guideID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.GuideID != guideID {
		return nil, ErrNotGuide
	}
	if b.Status != StatusConfirmed {
		return nil, ErrCompleteNotConfirmed
	}

	// Completion implies settlement.
	opts := TransitionOptions{SetPaymentStatus: PaymentPaid}
	if err := s.transition(ctx, b, StatusCompleted, opts); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) transition(ctx context.Context, b *Booking, to Status, opts TransitionOptions) error {
	from := b.Status
	if err := s.repo.Transition(ctx, b, to, opts); err != nil {
		return err
	}

	metrics.BookingTransitions.WithLabelValues(string(to)).Inc()
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id": b.ID,
		"from":       from,
		"to":         to,
	}).Info("booking status changed")
	return nil
}
