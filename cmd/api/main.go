package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/factify/backend/docs"
	"github.com/factify/backend/internal/classifier"
	"github.com/factify/backend/internal/database"
	"github.com/factify/backend/internal/handlers"
	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/internal/notifier"
	"github.com/factify/backend/internal/repositories"
	"github.com/factify/backend/internal/services"
	"github.com/factify/backend/internal/storage"
	"github.com/factify/backend/libs/auth/middleware"
	"github.com/factify/backend/libs/auth/service"
	"github.com/factify/backend/libs/config"
	"github.com/factify/backend/libs/logger"
	loggerMiddleware "github.com/factify/backend/libs/logger/middleware"
	sharedMiddleware "github.com/factify/backend/libs/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Factify API
// @version 1.0
// @description API for fake news detection with user history and admin dashboard

// @host localhost:5000
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Factify API")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize upload storage
	store, err := newStorage(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize classifier client
	classifierClient := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout, store, logger.Logger)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	analysisRepo := repositories.NewAnalysisRepository(db)

	// Initialize result notifier
	resultNotifier := notifier.New(logger.Logger)
	resultNotifier.Subscribe(notifier.NewHistoryListener(analysisRepo))

	if addr := cfg.RedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		// Test Redis connection
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Warn("Redis unreachable, verdict counters disabled", zap.String("addr", addr), zap.Error(err))
		} else {
			resultNotifier.Subscribe(notifier.NewVerdictCounter(rdb))
		}
	}

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenGenerator, logger.Logger)
	analysisService := services.NewAnalysisService(classifierClient, resultNotifier, analysisRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, analysisRepo, logger.Logger)
	submissionService := services.NewSubmissionService(analysisRepo, store, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, store, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger.Logger)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, logger.Logger)
	uploadHandler := handlers.NewUploadHandler(store, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, logger.Logger)

	// Initialize access gate
	gate := middleware.NewGate(tokenGenerator, authService, logger.Logger)
	authMiddleware := gate.Required()
	optionalAuthMiddleware := gate.Optional()
	adminMiddleware := gate.Required(string(models.RoleAdmin))

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(cfg.Upload.MaxSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	healthHandler.RegisterRoutes(r)
	uploadHandler.RegisterRoutes(r)

	// Scope router to /api
	r.Route("/api", func(r chi.Router) {
		// Register auth routes
		authHandler.RegisterRoutes(r)
		// Register analysis routes, guests may analyze
		analysisHandler.RegisterRoutes(r, optionalAuthMiddleware, authMiddleware)
		// Register submission routes
		submissionHandler.RegisterRoutes(r, authMiddleware)
		// Register admin routes with role middleware
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			adminHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Classifier.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// newStorage returns S3 storage when a bucket is configured, local storage otherwise
func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.S3.Bucket == "" {
		logger.Logger.Info("Using local upload storage", zap.String("dir", cfg.Upload.Dir))
		return storage.NewLocalStorage(cfg.Upload.Dir)
	}

	logger.Logger.Info("Using S3 upload storage", zap.String("bucket", cfg.S3.Bucket))
	return storage.NewS3Storage(context.Background(), storage.S3Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
}
