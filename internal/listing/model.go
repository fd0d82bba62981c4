package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
	"github.com/samber/lo"
)

var (
	ErrNotFound         = apperror.NotFound("listing not found")
	ErrForbidden        = apperror.Forbidden("only the owning guide can manage this listing")
	ErrGuideRequired    = apperror.Forbidden("only guides can create listings")
	ErrTitleRequired    = apperror.InvalidRequest("title is required")
	ErrPriceInvalid     = apperror.InvalidRequest("price must be greater than 0")
	ErrGroupSizeInvalid = apperror.InvalidRequest("max group size must be between 1 and 20")
	ErrDatesRequired    = apperror.InvalidRequest("at least one date is required")
	ErrInvalidDate      = apperror.InvalidRequest("dates must use the YYYY-MM-DD format")
)

// MaxGroupSize bounds both a listing's capacity and a booking's guest count.
const MaxGroupSize = 20

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Listing is a tour offered by a guide, with the calendar dates still open for booking.
type Listing struct {
	ID             string
	GuideID        string
	Title          string
	Description    string
	City           string
	Category       string
	Price          float64
	MaxGroupSize   int
	Active         bool
	AvailableDates []time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasDate reports whether d is still bookable.
func (l *Listing) HasDate(d time.Time) bool {
	day := Day(d)
	return lo.ContainsBy(l.AvailableDates, func(a time.Time) bool {
		return Day(a).Equal(day)
	})
}

// ListingFilter defines parameters for searching listings.
type ListingFilter struct {
	GuideID  string
	City     string // case-insensitive substring
	Category string
	MinPrice *float64
	MaxPrice *float64
	// IncludeInactive is only set for a guide's own listings.
	IncludeInactive bool
	Page            int
	PageSize        int
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns the calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t), nil
}

// UniqueDays normalizes dates to calendar days and drops duplicates, keeping order.
func UniqueDays(dates []time.Time) []time.Time {
	days := lo.Map(dates, func(d time.Time, _ int) time.Time { return Day(d) })
	return lo.UniqBy(days, func(d time.Time) string { return d.Format(DateLayout) })
}
