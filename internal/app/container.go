package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/tour-booking-backend/internal/api"
	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/booking"
	"github.com/nekogravitycat/tour-booking-backend/internal/gateway"
	"github.com/nekogravitycat/tour-booking-backend/internal/listing"
	"github.com/nekogravitycat/tour-booking-backend/internal/payment"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/lock"
	"github.com/nekogravitycat/tour-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	FrontendURL  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	// Redis is optional. Without it payment-init locks are process local,
	// which is only correct for a single instance.
	Redis *redis.Client

	// Gateway is used when PaymentGateway is nil.
	Gateway        gateway.Config
	PaymentGateway gateway.Client
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis != nil {
		locker = lock.NewRedisLocker(cfg.Redis, "tours:lock:")
	}

	gw := cfg.PaymentGateway
	if gw == nil {
		gw = gateway.NewSSLCommerzClient(cfg.Gateway)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Listing Module
	listingRepo := listing.NewPgxRepository(cfg.DBPool)
	listingService := listing.NewService(listingRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, listingService)

	// Payment Module
	paymentRepo := payment.NewPgxRepository(cfg.DBPool)
	paymentService := payment.NewService(paymentRepo, bookingRepo, userService, gw, locker)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		FrontendURL:    cfg.FrontendURL,
		UserService:    userService,
		ListingService: listingService,
		BookingService: bookingService,
		PaymentService: paymentService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
