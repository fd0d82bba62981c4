package payment

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.NotFound("Payment not found")
	ErrNotAuthorized         = apperror.Forbidden("Not authorized")
	ErrBookingNotConfirmed   = apperror.InvalidRequest("Booking must be confirmed before payment")
	ErrAlreadyPaid           = apperror.InvalidRequest("Already paid")
	ErrInitInProgress        = apperror.InvalidRequest("payment initiation already in progress")
	ErrPaymentFailed         = apperror.InvalidRequest("Payment failed")
	ErrValidationFailed      = apperror.New(apperror.KindGatewayFailure, "Payment validation failed")
	ErrTransactionIDRequired = apperror.InvalidRequest("Transaction ID is required")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

// Payment is one attempt to settle a booking through the gateway.
// Re-initiating after a failure creates a new row.
type Payment struct {
	ID            string
	BookingID     string
	TouristID     string
	Amount        float64
	Status        Status
	TransactionID string
	ValidationID  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTransactionID builds the gateway correlation id for a booking.
func NewTransactionID(now time.Time, bookingID string) string {
	return fmt.Sprintf("txn_%d_%s", now.UnixMilli(), bookingID)
}
