// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/infrastructure/database/postgres"
	"github.com/shopcore/ecommerce-backend/internal/infrastructure/database/redis"
	"github.com/shopcore/ecommerce-backend/internal/interfaces/http"
	"github.com/shopcore/ecommerce-backend/internal/interfaces/http/routes"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/pkg/metrics"
	"github.com/shopcore/ecommerce-backend/internal/pkg/payment"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/shopcore/ecommerce-backend/internal/pkg/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	appLogger.Infof("Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	if err := validation.Setup(); err != nil {
		appLogger.Fatalf("Failed to register validators: %v", err)
	}

	// Connect to database
	db, err := postgres.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), appLogger)

	if err := migration.RunAutoMigrations(); err != nil {
		appLogger.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		appLogger.Warnf("Index creation failed: %v", err)
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(auth.NewPasswordManager(cfg.Security.BcryptCost)); err != nil {
			appLogger.Warnf("Data seeding failed: %v", err)
		}
		migration.GetTableInfo()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Storage)
	store, err := storage.New(ctx, cfg.External.Storage)
	cancel()
	if err != nil {
		appLogger.Fatalf("Failed to set up storage: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := http.NewServer(routes.Dependencies{
		DB:      db.GetDB(),
		Redis:   redisClient.GetClient(),
		Config:  cfg,
		Logger:  appLogger,
		Storage: store,
		Gateway: payment.NewStripeGateway(cfg.External.Stripe),
		Mailer:  email.NewService(cfg.External.Email, cfg.Timeouts.Email, appLogger),
		Metrics: metrics.New(registry),
	}, registry)

	appLogger.Info("All systems operational")

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLogger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	appLogger.Info("Server shutdown completed")
}
