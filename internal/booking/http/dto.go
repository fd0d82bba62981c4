package http

import (
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED DECLINED CANCELLED COMPLETED"`
}

// CreateBookingRequest accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
type CreateBookingRequest struct {
	ListingID  string `json:"listingId" binding:"required,uuid"`
	Date       string `json:"date" binding:"required"`
	GuestCount int    `json:"guestCount" binding:"required,min=1,max=20"`
}

// ListingTag is a brief representation of the booked listing.
type ListingTag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type BookingResponse struct {
	ID            string                `json:"id"`
	Listing       ListingTag            `json:"listing"`
	GuideID       string                `json:"guideId"`
	TouristID     string                `json:"touristId"`
	Date          string                `json:"date"`
	GuestCount    int                   `json:"guestCount"`
	TotalPrice    float64               `json:"totalPrice"`
	Status        booking.Status        `json:"status"`
	PaymentStatus booking.PaymentStatus `json:"paymentStatus"`
	TransactionID *string               `json:"transactionId,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID,
		Listing: ListingTag{
			ID:    b.ListingID,
			Title: b.ListingTitle,
		},
		GuideID:       b.GuideID,
		TouristID:     b.TouristID,
		Date:          b.Date.Format(listing.DateLayout),
		GuestCount:    b.GuestCount,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TransactionID: b.TransactionID,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
