package http

import (
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/payment"
)

type InitPaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required,uuid"`
}

type InitPaymentResponse struct {
	RedirectURL   string `json:"redirectUrl"`
	TransactionID string `json:"transactionId"`
}

type StatusRequest struct {
	TransactionID string `form:"transactionId" binding:"required"`
}

type StatusResponse struct {
	Status        payment.Status `json:"status"`
	Amount        float64        `json:"amount"`
	TransactionID string         `json:"transactionId"`
	BookingID     string         `json:"bookingId"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func NewStatusResponse(p *payment.Payment) StatusResponse {
	return StatusResponse{
		Status:        p.Status,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		BookingID:     p.BookingID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
