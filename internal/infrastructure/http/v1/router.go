// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"vestry/internal/domain/invoicing"
	"vestry/internal/domain/ledger"
	"vestry/internal/domain/valuation"
	"vestry/internal/infrastructure/http/v1/handlers"
	"vestry/internal/infrastructure/http/v1/middleware"
	"vestry/internal/infrastructure/storage/postgres"
	"vestry/internal/infrastructure/storage/postgres/invoice_repo"
	"vestry/internal/infrastructure/storage/postgres/ledger_repo"
	"vestry/internal/infrastructure/storage/postgres/masterdata_repo"
	"vestry/pkg/logger"
	"vestry/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger

	// TokenParser resolves the acting user; requests without a valid token
	// are rejected before reaching any handler.
	TokenParser *middleware.TokenParser

	// Audit is optional; nil disables the write-audit trail.
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth required
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// Repositories
	movementRepo := ledger_repo.NewMovementRepo(cfg.TxManager)
	productRepo := masterdata_repo.NewProductRepo(cfg.TxManager)
	warehouseRepo := masterdata_repo.NewWarehouseRepo(cfg.TxManager)
	assetRepo := masterdata_repo.NewFixedAssetRepo(cfg.TxManager)
	invoiceRepo := invoice_repo.NewInvoiceRepo(cfg.TxManager)

	// Domain services
	ledgerService := ledger.NewService(movementRepo)
	valuationService := valuation.NewService(movementRepo, productRepo, warehouseRepo, assetRepo, cfg.TxManager)
	invoiceService := invoicing.NewService(
		invoiceRepo,
		numerator.New(invoiceRepo),
		invoicing.NewTranslator(ledgerService),
		cfg.TxManager,
	)

	// Handlers
	movementHandler := handlers.NewMovementHandler(ledgerService, cfg.Audit)
	inventoryHandler := handlers.NewInventoryHandler(valuationService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, cfg.Audit)

	api := router.Group("/api/v1")
	api.Use(middleware.Actor(cfg.TokenParser))
	{
		movements := api.Group("/movements")
		{
			movements.POST("", movementHandler.Create)
			movements.POST("/transfer", movementHandler.CreateTransfer)
		}

		inventory := api.Group("/inventory")
		{
			inventory.GET("/movements", movementHandler.List)
			inventory.GET("/stock-levels", inventoryHandler.StockLevels)
			inventory.GET("/book-inventory", inventoryHandler.BookInventory)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
			invoices.GET("/:id", invoiceHandler.GetByID)
			invoices.GET("/:id/history", invoiceHandler.History)
		}
	}

	return router
}
