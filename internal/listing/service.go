package listing

import (
	"context"
	"strings"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/user"
)

// CreateListingRequest carries data to create a listing.
type CreateListingRequest struct {
	GuideID        string
	Role           user.Role
	Title          string
	Description    string
	City           string
	Category       string
	Price          float64
	MaxGroupSize   int
	AvailableDates []time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateListingRequest) (*Listing, error)
	// GetByID returns an active listing; inactive ones are reported as not found.
	GetByID(ctx context.Context, id string) (*Listing, error)
	Search(ctx context.Context, filter ListingFilter) ([]*Listing, int, error)
	ListByGuide(ctx context.Context, guideID string, page, pageSize int) ([]*Listing, int, error)
	AddAvailableDates(ctx context.Context, id, guideID string, dates []time.Time) (*Listing, error)
	Deactivate(ctx context.Context, id, userID string, role user.Role) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateListing(l *Listing) error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrTitleRequired
	}
	if l.Price <= 0 {
		return ErrPriceInvalid
	}
	if l.MaxGroupSize < 1 || l.MaxGroupSize > MaxGroupSize {
		return ErrGroupSizeInvalid
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	if req.Role != user.RoleGuide {
		return nil, ErrGuideRequired
	}

	l := &Listing{
		GuideID:        req.GuideID,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		City:           strings.TrimSpace(req.City),
		Category:       strings.TrimSpace(req.Category),
		Price:          req.Price,
		MaxGroupSize:   req.MaxGroupSize,
		Active:         true,
		AvailableDates: UniqueDays(req.AvailableDates),
	}

	if err := validateListing(l); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Active {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *service) Search(ctx context.Context, filter ListingFilter) ([]*Listing, int, error) {
	filter.IncludeInactive = false
	return s.repo.List(ctx, filter)
}

func (s *service) ListByGuide(ctx context.Context, guideID string, page, pageSize int) ([]*Listing, int, error) {
	return s.repo.List(ctx, ListingFilter{
		GuideID:         guideID,
		IncludeInactive: true,
		Page:            page,
		PageSize:        pageSize,
	})
}

func (s *service) AddAvailableDates(ctx context.Context, id, guideID string, dates []time.Time) (*Listing, error) {
	if len(dates) == 0 {
		return nil, ErrDatesRequired
	}

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.GuideID != guideID {
		return nil, ErrForbidden
	}

	merged, err := s.repo.AddDates(ctx, id, UniqueDays(dates))
	if err != nil {
		return nil, err
	}
	l.AvailableDates = merged
	return l, nil
}

func (s *service) Deactivate(ctx context.Context, id, userID string, role user.Role) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role != user.RoleAdmin && l.GuideID != userID {
		return ErrForbidden
	}
	return s.repo.SetActive(ctx, id, false)
}
