// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pricedesk/internal/domain/history"
	"pricedesk/internal/domain/ingest"
	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/pricing"
	"pricedesk/internal/domain/subscription"
	"pricedesk/internal/infrastructure/http/v1/handlers"
	"pricedesk/internal/infrastructure/http/v1/middleware"
	"pricedesk/internal/infrastructure/storage/postgres"
	"pricedesk/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Subscription answers active-subscription checks for data endpoints
	Subscription subscription.Checker

	// Engine merges supplier uploads into the catalog
	Engine *ingest.Engine

	// Resolver picks cheapest offers per requested item code
	Resolver *pricing.Resolver

	// Offers backs the catalog export
	Offers offer.Repository

	// History records and lists operation history
	History *history.Service

	// MaxUploadBytes bounds accepted spreadsheet uploads
	MaxUploadBytes int64

	// ExportPageSize bounds each catalog export query
	ExportPageSize int
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	dataHandler := handlers.NewDataHandler(
		cfg.Engine, cfg.Resolver, cfg.Offers, cfg.History,
		cfg.MaxUploadBytes, cfg.ExportPageSize,
	)
	historyHandler := handlers.NewHistoryHandler(cfg.History)

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		// Data endpoints additionally require an active subscription.
		data := protected.Group("/data")
		data.Use(middleware.RequireSubscription(cfg.Subscription))
		{
			data.POST("/supplier-upload", dataHandler.SupplierUpload)
			data.POST("/price-resolution", dataHandler.PriceResolution)
			data.GET("/catalog-export", dataHandler.CatalogExport)
			data.POST("/resolution-export", dataHandler.ResolutionExport)
			data.POST("/detailed-resolution-export", dataHandler.DetailedResolutionExport)
			data.POST("/history-export", dataHandler.HistoryExport)
			data.POST("/invoice-export", dataHandler.InvoiceExport)
		}

		protected.GET("/history", historyHandler.List)
	}

	return router
}
