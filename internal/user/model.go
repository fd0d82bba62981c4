package user

import (
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.New(apperror.KindConflict, "email already used")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(apperror.KindUnauthorized, "user is inactive")
	ErrEmailRequired      = apperror.InvalidRequest("email is required")
	ErrPasswordTooShort   = apperror.InvalidRequest("password is too short")
	ErrNameRequired       = apperror.InvalidRequest("name is required")
	ErrInvalidRole        = apperror.InvalidRequest("role must be tourist or guide")
)

type Role string

const (
	RoleTourist Role = "tourist"
	RoleGuide   Role = "guide"
	RoleAdmin   Role = "admin"
)

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Address      *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
