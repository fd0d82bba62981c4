package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/tour-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	listingHttp "github.com/nekogravitycat/tour-booking-backend/internal/listing/http"
	"github.com/nekogravitycat/tour-booking-backend/internal/payment"
	paymentHttp "github.com/nekogravitycat/tour-booking-backend/internal/payment/http"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/tour-booking-backend/internal/user/http"
)

// Config carries the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	FrontendURL  string

	UserService    user.Service
	ListingService listing.Service
	BookingService booking.Service
	PaymentService payment.Service
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Structured request log with a request id.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.Middleware(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins(cfg)
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	touristOnly := RequireRole(user.RoleTourist)
	guideOnly := RequireRole(user.RoleGuide)
	guideOrAdmin := RequireRole(user.RoleGuide, user.RoleAdmin)
	participant := RequireRole(user.RoleTourist, user.RoleGuide)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	listingHandler := listingHttp.NewHandler(cfg.ListingService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	paymentHandler := paymentHttp.NewHandler(cfg.PaymentService, cfg.FrontendURL)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		listingHttp.RegisterRoutes(v1, listingHandler, authMiddleware, guideOnly, guideOrAdmin)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, participant, guideOnly)
		paymentHttp.RegisterRoutes(v1, paymentHandler, authMiddleware, touristOnly)
	}

	return r
}

// allowedOrigins returns the configured production origins, or the local
// frontend during development.
func allowedOrigins(cfg Config) []string {
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		var origins []string
		for _, o := range strings.Split(cfg.ProdOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return origins
	}
	return []string{cfg.FrontendURL, "http://localhost:8081"}
}
