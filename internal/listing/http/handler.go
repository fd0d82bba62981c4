package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
)

type ListingHandler struct {
	service listing.Service
}

func NewHandler(service listing.Service) *ListingHandler {
	return &ListingHandler{service: service}
}

func toResponses(ls []*listing.Listing) []ListingResponse {
	items := make([]ListingResponse, len(ls))
	for i, l := range ls {
		items[i] = NewListingResponse(l)
	}
	return items
}

// Search lists active listings with optional filters.
func (h *ListingHandler) Search(c *gin.Context) {
	var req SearchListingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	ls, total, err := h.service.Search(c.Request.Context(), listing.ListingFilter{
		City:     req.City,
		Category: req.Category,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Listings retrieved successfully",
		response.NewPageResponse(toResponses(ls), req.Page, req.PageSize, total))
}

// Mine lists the authenticated guide's listings, including inactive ones.
func (h *ListingHandler) Mine(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	params.Normalize()

	ls, total, err := h.service.ListByGuide(c.Request.Context(), auth.GetUserID(c), params.Page, params.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Listings retrieved successfully",
		response.NewPageResponse(toResponses(ls), params.Page, params.PageSize, total))
}

func (h *ListingHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid listing id", err)
		return
	}

	l, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Listing retrieved successfully", NewListingResponse(l))
}

func (h *ListingHandler) Create(c *gin.Context) {
	var body CreateListingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	dates, err := parseDates(body.AvailableDates)
	if err != nil {
		response.Error(c, err)
		return
	}

	l, err := h.service.Create(c.Request.Context(), listing.CreateListingRequest{
		GuideID:        auth.GetUserID(c),
		Role:           user.Role(auth.GetUserRole(c)),
		Title:          body.Title,
		Description:    body.Description,
		City:           body.City,
		Category:       body.Category,
		Price:          body.Price,
		MaxGroupSize:   body.MaxGroupSize,
		AvailableDates: dates,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Listing created successfully", NewListingResponse(l))
}

// AddDates opens more calendar dates on a listing.
func (h *ListingHandler) AddDates(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid listing id", err)
		return
	}

	var body AddDatesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	dates, err := parseDates(body.Dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	l, err := h.service.AddAvailableDates(c.Request.Context(), uri.ID, auth.GetUserID(c), dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Available dates updated", NewListingResponse(l))
}

func (h *ListingHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid listing id", err)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), uri.ID, auth.GetUserID(c), user.Role(auth.GetUserRole(c))); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
