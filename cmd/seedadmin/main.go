package main

import (
	"context"
	"flag"
	"log"

	"github.com/factify/backend/internal/database"
	"github.com/factify/backend/internal/repositories"
	"github.com/factify/backend/internal/services"
	"github.com/factify/backend/libs/config"
	"github.com/factify/backend/libs/logger"
	"go.uber.org/zap"
)

func main() {
	reset := flag.Bool("reset", false, "delete the admin account with ADMIN_EMAIL and create it again")
	flag.Parse()

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

	userRepo := repositories.NewUserRepository(db, logger.Logger)
	bootstrapService := services.NewBootstrapService(userRepo, logger.Logger)

	created, err := bootstrapService.EnsureAdmin(context.Background(), services.AdminAccount{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, *reset)
	if err != nil {
		logger.Logger.Fatal("Failed to provision admin", zap.Error(err))
	}

	if created {
		logger.Logger.Info("Admin account ready", zap.String("email", cfg.Admin.Email))
	} else {
		logger.Logger.Info("Admin account already exists, nothing to do", zap.String("email", cfg.Admin.Email))
	}
}
