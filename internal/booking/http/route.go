package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the booking routes. participant admits tourists and
// guides; guideOnly further restricts to guides.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, participant, guideOnly gin.HandlerFunc) {
	group := g.Group("/booking")

	// === Authenticated Routes ===
	group.Use(authMiddleware, participant)
	{
		group.POST("", h.Create)
		group.GET("/my-bookings", h.MyBookings)
		group.GET("/guide-bookings", guideOnly, h.GuideBookings)
		group.GET("/:id", h.Get)
		group.PATCH("/:id/confirm", guideOnly, h.Confirm)
		group.PATCH("/:id/decline", guideOnly, h.Decline)
		group.PATCH("/:id/cancel", h.Cancel)
		group.PATCH("/:id/complete", guideOnly, h.Complete)
	}
}
