// Package main is the entry point for the pricedesk API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pricedesk/internal/config"
	"pricedesk/internal/domain/auth"
	"pricedesk/internal/domain/history"
	"pricedesk/internal/domain/ingest"
	"pricedesk/internal/domain/pricing"
	"pricedesk/internal/domain/supplier"
	v1 "pricedesk/internal/infrastructure/http/v1"
	"pricedesk/internal/infrastructure/storage/postgres"
	"pricedesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting pricedesk server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	supplierRepo := postgres.NewSupplierRepo(txManager)
	offerRepo := postgres.NewOfferRepo(txManager)
	historyRepo := postgres.NewHistoryRepo(txManager)
	subscriptionRepo := postgres.NewSubscriptionRepo(txManager)

	// --- Services ---
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
	})

	supplierService := supplier.NewService(supplierRepo)
	engine := ingest.NewEngine(supplierService, offerRepo, ingest.Config{
		BatchSize: cfg.IngestBatchSize,
	})
	resolver := pricing.NewResolver(offerRepo)

	historyService, err := history.NewService(historyRepo)
	if err != nil {
		log.Fatalw("failed to initialize history service", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		Subscription:   subscriptionRepo,
		Engine:         engine,
		Resolver:       resolver,
		Offers:         offerRepo,
		History:        historyService,
		MaxUploadBytes: cfg.MaxUploadBytes,
		ExportPageSize: cfg.ExportPageSize,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
