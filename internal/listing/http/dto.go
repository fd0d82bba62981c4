package http

import (
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/request"
	"github.com/samber/lo"
)

type ListingResponse struct {
	ID             string    `json:"id"`
	GuideID        string    `json:"guideId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	City           string    `json:"city"`
	Category       string    `json:"category"`
	Price          float64   `json:"price"`
	MaxGroupSize   int       `json:"maxGroupSize"`
	Active         bool      `json:"active"`
	AvailableDates []string  `json:"availableDates"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewListingResponse(l *listing.Listing) ListingResponse {
	dates := lo.Map(l.AvailableDates, func(d time.Time, _ int) string {
		return d.Format(listing.DateLayout)
	})

	return ListingResponse{
		ID:             l.ID,
		GuideID:        l.GuideID,
		Title:          l.Title,
		Description:    l.Description,
		City:           l.City,
		Category:       l.Category,
		Price:          l.Price,
		MaxGroupSize:   l.MaxGroupSize,
		Active:         l.Active,
		AvailableDates: dates,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

type CreateListingRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	City           string   `json:"city" binding:"required"`
	Category       string   `json:"category"`
	Price          float64  `json:"price" binding:"required,gt=0"`
	MaxGroupSize   int      `json:"maxGroupSize" binding:"required,min=1,max=20"`
	AvailableDates []string `json:"availableDates"`
}

type AddDatesRequest struct {
	Dates []string `json:"dates" binding:"required,min=1"`
}

type SearchListingsRequest struct {
	request.ListParams
	City     string   `form:"city"`
	Category string   `form:"category"`
	MinPrice *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
}

// parseDates converts wire dates, failing on the first malformed one.
func parseDates(in []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(in))
	for _, s := range in {
		d, err := listing.ParseDate(s)
		if err != nil {
			return nil, listing.ErrInvalidDate
		}
		out = append(out, d)
	}
	return out, nil
}
