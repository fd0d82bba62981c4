package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
)

const genericMessage = "Something went wrong"

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"` // underlying cause, development only
}

var exposeDetails = true

// SetDevelopment controls whether unexpected error details are included in responses.
func SetDevelopment(dev bool) {
	exposeDetails = dev
}

// Error sends a JSON error response.
// AppErrors are rendered with their own status and message; anything else
// becomes a 500 with a generic message.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		}
		c.AbortWithStatusJSON(appErr.Code, ErrorResponse{
			Message:    appErr.Message,
			StatusCode: appErr.Code,
		})
		return
	}

	logger.FromContext(c.Request.Context()).WithError(err).Error("unhandled error")

	resp := ErrorResponse{
		Message:    genericMessage,
		StatusCode: http.StatusInternalServerError,
	}
	if exposeDetails {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

// BadRequest reports a binding or validation failure.
func BadRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
