// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	BulkDelete(c *gin.Context)
	Journal(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	repo := catalog_repo.NewVendorRepo(txm)
//	service := vendor.NewService(repo, txm, gen)
//	handler := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[...]{...})
//	RegisterCatalogRoutes(api.Group("/vendors"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	read := middleware.RequirePermission(middleware.PermRead)
	write := middleware.RequirePermission(middleware.PermWrite)

	group.GET("", read, handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", read, handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
}

// RegisterDocumentRoutes registers CRUD, bulk delete and journal routes for
// a document type. Saving a document applies its stock, cost and GL effects,
// so there are no separate posting routes.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	read := middleware.RequirePermission(middleware.PermRead)
	write := middleware.RequirePermission(middleware.PermWrite)

	group.GET("", read, handler.List)
	group.POST("", write, handler.Create)
	group.POST("/bulk-delete", write, handler.BulkDelete)
	group.GET("/:id", read, handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.GET("/:id/journal", read, handler.Journal)
}
