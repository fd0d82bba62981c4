package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	"github.com/samber/lo"
)

// RequireRole admits callers whose token carries one of roles.
// It MUST be used after auth.AuthRequired middleware.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.GetUserID(c) == "" {
			response.Error(c, apperror.New(apperror.KindUnauthorized, "unauthorized"))
			return
		}

		if !lo.Contains(roles, user.Role(auth.GetUserRole(c))) {
			response.Error(c, apperror.Forbidden("You are not authorized to access this resource"))
			return
		}

		c.Next()
	}
}
