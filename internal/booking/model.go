package booking

import (
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.NotFound("Booking not found")
	ErrListingNotFound      = apperror.NotFound("Listing not found")
	ErrTouristOnly          = apperror.Forbidden("Only tourists can book")
	ErrNotParticipant       = apperror.Forbidden("Not authorized")
	ErrNotGuide             = apperror.Forbidden("Only the assigned guide can update status")
	ErrDateUnavailable      = apperror.InvalidRequest("Date not available")
	ErrDateInPast           = apperror.InvalidRequest("Date must be in the future")
	ErrGroupTooLarge        = apperror.InvalidRequest("Group size exceeds maximum")
	ErrGuestCountInvalid    = apperror.InvalidRequest("Guest count must be between 1 and 20")
	ErrInvalidTargetStatus  = apperror.InvalidRequest("Status must be CONFIRMED or DECLINED")
	ErrDeclinePaid          = apperror.InvalidRequest("Cannot decline a paid booking")
	ErrNotPending           = apperror.InvalidRequest("Can only update pending bookings")
	ErrCancelPaid           = apperror.InvalidRequest("Paid bookings cannot be cancelled directly. Please contact support for refund.")
	ErrAlreadyCancelled     = apperror.InvalidRequest("Booking already cancelled")
	ErrNotCancellable       = apperror.InvalidRequest("Booking can no longer be cancelled")
	ErrCompleteNotConfirmed = apperror.InvalidRequest("Can only complete confirmed bookings")
	ErrConcurrentUpdate     = apperror.InvalidRequest("Booking was modified by another request, please retry")
)

// MaxGuests is the hard upper bound on guests per booking.
const MaxGuests = 20

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
// DECLINED, CANCELLED and COMPLETED have no outgoing edges.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type Booking struct {
	ID            string
	ListingID     string
	ListingTitle  string
	GuideID       string
	TouristID     string
	Date          time.Time
	GuestCount    int
	TotalPrice    float64
	Status        Status
	PaymentStatus PaymentStatus
	TransactionID *string // latest initiated payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsParticipant reports whether userID is the booking's tourist or guide.
func (b *Booking) IsParticipant(userID string) bool {
	return userID != "" && (b.TouristID == userID || b.GuideID == userID)
}

type Filter struct {
	TouristID string
	GuideID   string
	Status    Status
	Page      int
	PageSize  int
}

// TransitionOptions adds guards and side effects to a status change.
type TransitionOptions struct {
	// RequireUnpaid makes the change fail if the booking became PAID meanwhile.
	RequireUnpaid bool
	// SetPaymentStatus overwrites the payment status when non-empty.
	SetPaymentStatus PaymentStatus
	// RestoreDate returns the booking's date to the listing if it is absent.
	RestoreDate bool
}
