package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	date, err := listing.ParseDate(body.Date)
	if err != nil {
		response.Error(c, listing.ErrInvalidDate)
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		ListingID:   body.ListingID,
		Date:        date,
		GuestCount:  body.GuestCount,
		TouristID:   auth.GetUserID(c),
		TouristRole: user.Role(auth.GetUserRole(c)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Booking created successfully", NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Booking retrieved successfully", NewBookingResponse(b))
}

// MyBookings lists the caller's bookings as a tourist.
func (h *Handler) MyBookings(c *gin.Context) {
	h.list(c, h.service.ListForTourist)
}

// GuideBookings lists bookings against the caller's listings.
func (h *Handler) GuideBookings(c *gin.Context) {
	h.list(c, h.service.ListForGuide)
}

type listFunc func(ctx context.Context, userID string, filter booking.Filter) ([]*booking.Booking, int, error)

func (h *Handler) list(c *gin.Context, fn listFunc) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	bookings, total, err := fn(c.Request.Context(), auth.GetUserID(c), booking.Filter{
		Status:   booking.Status(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	response.OK(c, http.StatusOK, "Bookings retrieved successfully",
		response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Confirm(c *gin.Context) {
	h.updateStatus(c, booking.StatusConfirmed, "Booking confirmed")
}

func (h *Handler) Decline(c *gin.Context) {
	h.updateStatus(c, booking.StatusDeclined, "Booking declined")
}

func (h *Handler) updateStatus(c *gin.Context, status booking.Status, message string) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, auth.GetUserID(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, message, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Booking cancelled", NewBookingResponse(b))
}

func (h *Handler) Complete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.Complete(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Booking completed", NewBookingResponse(b))
}
