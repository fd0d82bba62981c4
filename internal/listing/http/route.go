package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *ListingHandler, authMiddleware, guideOnly, guideOrAdmin gin.HandlerFunc) {
	group := g.Group("/listings")

	// === Public Routes ===
	group.GET("", h.Search)

	// === Authenticated Routes ===
	group.GET("/mine", authMiddleware, guideOnly, h.Mine)
	group.POST("", authMiddleware, guideOnly, h.Create)
	group.PATCH("/:id/dates", authMiddleware, guideOnly, h.AddDates)
	group.DELETE("/:id", authMiddleware, guideOrAdmin, h.Delete)

	group.GET("/:id", h.Get)
}
