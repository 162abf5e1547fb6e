package server

import (
	"fmt"
	"net/http"
	"time"

	"farmmart/internal/ai"
	"farmmart/internal/config"
	"farmmart/internal/database"
	"farmmart/internal/images"
	custommiddleware "farmmart/internal/middleware"
	"farmmart/internal/payment"
	"farmmart/internal/repository"
	"farmmart/internal/service"
	"farmmart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))

	// Rate limit all API traffic through Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Rate.RequestsPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, db.Health())
	})

	// Serve locally stored product images
	router.Handle(cfg.Images.BaseURL+"/*", http.StripPrefix(cfg.Images.BaseURL+"/",
		http.FileServer(http.Dir(cfg.Images.Dir))))

	// Initialize collaborators
	imageStore, err := images.NewLocalStore(cfg.Images.Dir, cfg.Images.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}
	summarizer := ai.NewSummarizer(ai.Config{
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
	})
	provider := payment.NewMockProvider()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())
	messageRepo := repository.NewMessageRepository(db.DB())

	// Initialize services
	tokenTTL := time.Duration(cfg.JWT.ExpiryDays) * 24 * time.Hour
	userService := service.NewUserService(userRepo, cartRepo, productRepo, cfg.JWT.Secret, tokenTTL)
	cartService := service.NewCartService(cartRepo, userRepo, productRepo)
	productService := service.NewProductService(productRepo, imageStore, summarizer)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, userRepo, provider)
	messageService := service.NewMessageService(messageRepo, userRepo)

	// Initialize handlers
	cookie := transport.AuthCookieConfig{
		Name:   cfg.JWT.CookieName,
		TTL:    tokenTTL,
		Secure: cfg.JWT.CookieSecure,
	}
	userHandler := transport.NewUserHandler(userService, cookie, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	messageHandler := transport.NewMessageHandler(messageService, logger)
	paymentHandler := transport.NewPaymentHandler(provider, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, cfg.JWT.CookieName, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware, adminOnly)
	cartHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, adminOnly)
	orderHandler.RegisterRoutes(router, authMiddleware, adminOnly)
	messageHandler.RegisterRoutes(router, authMiddleware, adminOnly)
	paymentHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
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
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
