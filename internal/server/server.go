package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dscatalog/internal/config"
	"dscatalog/internal/database"
	custommiddleware "dscatalog/internal/middleware"
	"dscatalog/internal/repository"
	"dscatalog/internal/service"
	"dscatalog/internal/transport"

	"github.com/go-chi/chi/v5"
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

// NewServer wires repositories, services and handlers onto one router.
// redisClient may be nil, in which case rate limiting is skipped.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.CORS, s.config.Server))
	if s.config.RateLimit.Enabled && s.redis != nil {
		router.Use(custommiddleware.RateLimitMiddleware(s.redis, s.config.RateLimit, s.logger))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "resource not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", s.health)

	sqlDB := s.db.DB()

	// Initialize repositories
	productRepo := repository.NewProductRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	roleRepo := repository.NewRoleRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)

	// Initialize services
	productService := service.NewProductService(productRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	roleService := service.NewRoleService(roleRepo)
	userService := service.NewUserService(userRepo, refreshTokenRepo, s.config.JWT, s.logger)

	authMiddleware := custommiddleware.AuthMiddleware(s.config.JWT.Secret, s.logger)

	transport.NewProductHandler(productService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewCategoryHandler(categoryService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewRoleHandler(roleService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewUserHandler(userService, s.logger).RegisterRoutes(router, authMiddleware)

	return router
}

// health reports database pool statistics, plus redis reachability when a
// client is configured. Any dependency down answers 503.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Health(r.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{"database": stats}
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			body["redis"] = map[string]string{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			body["redis"] = map[string]string{"status": "up"}
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	return nil
}
