package gateway

import (
	"context"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotConfigured = apperror.New(apperror.KindInternalConfiguration, "payment gateway is not configured")
	ErrInitFailed    = apperror.New(apperror.KindGatewayFailure, "payment gateway session could not be created")
	ErrValidation    = apperror.New(apperror.KindGatewayFailure, "payment validation failed")
)

// Config is built once at startup and handed to the client.
type Config struct {
	StoreID       string
	StorePassword string
	PaymentAPI    string // session endpoint
	ValidationAPI string // validator endpoint

	// Backend callback URLs. The client appends transactionId, amount and
	// status so the callback can be matched even without a form body.
	SuccessURL string
	FailURL    string
	CancelURL  string
	IPNURL     string

	Currency string
	Timeout  time.Duration
}

// Configured reports whether the credentials and endpoints needed for a call are present.
func (c Config) Configured() bool {
	return c.StoreID != "" && c.StorePassword != "" && c.PaymentAPI != "" && c.ValidationAPI != ""
}

// InitRequest describes one hosted payment session.
type InitRequest struct {
	Amount          float64
	TransactionID   string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
}

// ValidationResult is the part of the validator response we act on.
type ValidationResult struct {
	Status       string
	TranID       string
	Amount       float64
	HasAmount    bool
	ValidationID string
}

// Valid reports whether the gateway vouched for the payment.
func (r *ValidationResult) Valid() bool {
	return r.Status == "VALID" || r.Status == "VALIDATED"
}

// Client talks to the hosted payment page provider.
type Client interface {
	// Init opens a payment session and returns the URL to send the customer to.
	Init(ctx context.Context, req InitRequest) (string, error)
	// Validate asks the gateway whether validationID belongs to a completed payment.
	Validate(ctx context.Context, validationID string) (*ValidationResult, error)
}
