package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the payment routes. The gateway callbacks are public
// and accept both POST and GET.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, touristOnly gin.HandlerFunc) {
	group := g.Group("/payments")

	// === Gateway Callbacks ===
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		group.Handle(method, "/success", h.Success)
		group.Handle(method, "/fail", h.Fail)
		group.Handle(method, "/cancel", h.Cancel)
	}

	// === Authenticated Routes ===
	authed := group.Group("", authMiddleware, touristOnly)
	{
		authed.POST("/init", h.Init)
		authed.GET("/status", h.Status)
	}
}
