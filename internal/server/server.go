package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
}

// NewServer wires repositories, services and handlers onto a chi router.
// redisClient may be nil, in which case the auth endpoints run unthrottled.
func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(custommiddleware.RequestLogger(logger))
	router.Use(custommiddleware.Recovery(logger))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.Users())
	productRepo := repository.NewProductRepository(db.Products())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
	)
	catalogService := service.NewCatalogService(productRepo)

	// Initialize handlers
	healthHandler := transport.NewHealthHandler(db, logger)
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)

	tokenMiddleware := custommiddleware.RequireToken(cfg.JWT.Secret, logger)

	limitMiddleware := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		limitMiddleware = custommiddleware.RateLimit(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "ratelimit:auth",
		}, logger)
	}

	// Register routes
	healthHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router, tokenMiddleware, limitMiddleware)
	productHandler.RegisterRoutes(router)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
	}
}

// Close releases server resources after Shutdown has drained requests.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		ctx, cancel := contextWithCloseTimeout()
		defer cancel()

		if err := s.db.Close(ctx); err != nil {
			s.logger.Error("Failed to close document store connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

func contextWithCloseTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
