package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/app"
	"stockbook/internal/domain/catalogs/location"
	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/catalogs/vendor"
	"stockbook/internal/domain/documents/adjustment"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/documents/transfer"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/domain/documents/vendor_credit"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/http/v1/dto"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/metadata"
	"stockbook/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTValidator validates operator access tokens.
	JWTValidator middleware.JWTValidator

	// Idempotency stores replayable responses; nil disables the middleware.
	Idempotency middleware.IdempotencyStore

	Services *app.Services
	Statuses *status.Registry

	// HealthChecks are probed by /health/ready next to the database.
	HealthChecks map[string]handlers.Pinger

	CORSOrigins []string
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerDocumentRoutes(api, base, cfg.Services)
	registerCatalogRoutes(api, base, cfg.Services)
	registerStockRoutes(api, base, cfg.Services)
	registerReportRoutes(api, base, cfg.Services)
	registerMetaRoutes(api, base, cfg.Statuses)

	return router, nil
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	gl := svc.Journal

	orders := handlers.NewPurchaseOrderHandler(base, svc.PurchaseOrders, gl)
	ordersGroup := rg.Group("/purchase-orders")
	RegisterDocumentRoutes(ordersGroup, orders)
	ordersGroup.GET("/:id/receipt-draft", middleware.RequirePermission(middleware.PermRead), orders.ReceiptDraft)

	RegisterDocumentRoutes(rg.Group("/item-receipts"), handlers.NewItemReceiptHandler(base, svc.ItemReceipts, gl))
	RegisterDocumentRoutes(rg.Group("/vendor-bills"), handlers.NewVendorBillHandler(base, svc.VendorBills, gl))
	RegisterDocumentRoutes(rg.Group("/vendor-credits"), handlers.NewVendorCreditHandler(base, svc.VendorCredits, gl))
	RegisterDocumentRoutes(rg.Group("/inventory-adjustments"), handlers.NewAdjustmentHandler(base, svc.Adjustments, gl))
	RegisterDocumentRoutes(rg.Group("/inventory-transfers"), handlers.NewTransferHandler(base, svc.Transfers))

	journalHandler := handlers.NewJournalHandler(base, gl)
	rg.GET("/journal", middleware.RequirePermission(middleware.PermRead), journalHandler.ForSource)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterCatalogRoutes(rg.Group("/products"), handlers.NewCatalogHandler(base,
		handlers.CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
			Service:      svc.Products,
			MapCreateDTO: dto.CreateProductRequest.ToDomain,
			MapUpdateDTO: dto.UpdateProductRequest.Apply,
		}))

	RegisterCatalogRoutes(rg.Group("/locations"), handlers.NewCatalogHandler(base,
		handlers.CatalogHandlerConfig[*location.Location, dto.CreateLocationRequest, dto.UpdateLocationRequest]{
			Service:      svc.Locations,
			MapCreateDTO: dto.CreateLocationRequest.ToDomain,
			MapUpdateDTO: dto.UpdateLocationRequest.Apply,
		}))

	RegisterCatalogRoutes(rg.Group("/vendors"), handlers.NewCatalogHandler(base,
		handlers.CatalogHandlerConfig[*vendor.Vendor, dto.CreateVendorRequest, dto.UpdateVendorRequest]{
			Service:      svc.Vendors,
			MapCreateDTO: dto.CreateVendorRequest.ToDomain,
			MapUpdateDTO: dto.UpdateVendorRequest.Apply,
		}))
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	stockHandler := handlers.NewStockHandler(base, svc.Stock, svc.Deps.TxManager)
	read := middleware.RequirePermission(middleware.PermRead)

	stockGroup := rg.Group("/stock")
	stockGroup.GET("/levels", read, stockHandler.ListLevels)
	stockGroup.GET("/levels/:itemId/:locationId", read, stockHandler.GetLevel)
	stockGroup.PUT("/levels/bulk", middleware.RequirePermission(middleware.PermStockSync), stockHandler.BulkSet)
	stockGroup.GET("/items/:itemId/total", read, stockHandler.ItemTotal)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	reportHandler := handlers.NewReportsHandler(base, svc.Reports)
	read := middleware.RequirePermission(middleware.PermRead)

	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/inventory-valuation", read, reportHandler.InventoryValuation)
	reportsGroup.GET("/document-journal", read, reportHandler.DocumentJournal)
}

func registerMetaRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, statuses *status.Registry) {
	handler := handlers.NewMetadataHandler(base, NewMetadataRegistry(), statuses)
	read := middleware.RequirePermission(middleware.PermRead)

	meta := rg.Group("/meta")
	meta.GET("/forms", read, handler.ListForms)
	meta.GET("/forms/:name", read, handler.GetForm)
	meta.GET("/schemas/:name", read, handler.GetSchema)
	meta.GET("/statuses", read, handler.Statuses)
}

// NewMetadataRegistry describes every catalog and document the API serves.
func NewMetadataRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()

	register := func(entity any, name, path string, typ metadata.EntityType, request any, adjust ...func(*metadata.EntityDef)) {
		def := metadata.Inspect(entity, name, typ)
		def.Path = path
		for _, fn := range adjust {
			fn(&def)
		}
		reg.Register(def, request)
	}

	// --- Catalogs ---
	register(product.Product{}, "product", "/products", metadata.TypeCatalog, dto.CreateProductRequest{},
		func(def *metadata.EntityDef) {
			def.SetEnum("type", string(product.TypeInventory), string(product.TypeService))
		})
	register(location.Location{}, "location", "/locations", metadata.TypeCatalog, dto.CreateLocationRequest{})
	register(vendor.Vendor{}, "vendor", "/vendors", metadata.TypeCatalog, dto.CreateVendorRequest{})

	// --- Documents ---
	register(purchase_order.PurchaseOrder{}, "purchaseOrder", "/purchase-orders", metadata.TypeDocument, dto.PurchaseOrderRequest{})
	register(item_receipt.ItemReceipt{}, "itemReceipt", "/item-receipts", metadata.TypeDocument, dto.ItemReceiptRequest{})
	register(vendor_bill.VendorBill{}, "vendorBill", "/vendor-bills", metadata.TypeDocument, dto.VendorBillRequest{})
	register(vendor_credit.VendorCredit{}, "vendorCredit", "/vendor-credits", metadata.TypeDocument, dto.VendorCreditRequest{})
	register(adjustment.InventoryAdjustment{}, "inventoryAdjustment", "/inventory-adjustments", metadata.TypeDocument, dto.AdjustmentRequest{})
	register(transfer.InventoryTransfer{}, "inventoryTransfer", "/inventory-transfers", metadata.TypeDocument, dto.TransferRequest{})

	return reg
}
