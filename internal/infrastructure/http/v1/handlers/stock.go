package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// StockService is the part of stock.Service the HTTP layer uses.
type StockService interface {
	GetLevel(ctx context.Context, itemID, locationID id.ID) (stock.Level, error)
	ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.Level, int64, error)
	BulkSetQuantity(ctx context.Context, items []stock.QuantitySet) ([]stock.SetResult, error)
	TotalQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error)
}

var _ StockService = (*stock.Service)(nil)

// StockHandler handles HTTP requests for inventory levels.
type StockHandler struct {
	*BaseHandler
	service StockService
	txm     tx.Manager
}

// NewStockHandler creates a new stock handler. Bulk writes run in one
// transaction of txm.
func NewStockHandler(base *BaseHandler, service StockService, txm tx.Manager) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service, txm: txm}
}

// ListLevels handles GET /stock/levels
func (h *StockHandler) ListLevels(c *gin.Context) {
	var q dto.StockLevelsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	levels, total, err := h.service.ListLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if levels == nil {
		levels = []stock.Level{}
	}
	h.OK(c, domain.ListResult[stock.Level]{
		Results:     levels,
		TotalItems:  total,
		PageSize:    filter.Limit,
		CurrentPage: filter.Offset/filter.Limit + 1,
	})
}

// GetLevel handles GET /stock/levels/:itemId/:locationId
// A pair without a stored level reports zero.
func (h *StockHandler) GetLevel(c *gin.Context) {
	itemID, ok := h.ParamID(c, "itemId")
	if !ok {
		return
	}
	locationID, ok := h.ParamID(c, "locationId")
	if !ok {
		return
	}
	level, err := h.service.GetLevel(c.Request.Context(), itemID, locationID)
	if apperror.IsNotFound(err) {
		level, err = stock.Level{ItemID: itemID, LocationID: locationID}, nil
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, level)
}

// BulkSet handles PUT /stock/levels/bulk
// Per-pair failures are reported in the body; the request still succeeds.
func (h *StockHandler) BulkSet(c *gin.Context) {
	var req dto.BulkSetQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	var results []stock.SetResult
	err := h.txm.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		var err error
		results, err = h.service.BulkSetQuantity(ctx, req.Items())
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if results == nil {
		results = []stock.SetResult{}
	}
	h.OK(c, dto.NewBulkSetQuantityResponse(results))
}

// ItemTotal handles GET /stock/items/:itemId/total
func (h *StockHandler) ItemTotal(c *gin.Context) {
	itemID, ok := h.ParamID(c, "itemId")
	if !ok {
		return
	}
	total, err := h.service.TotalQuantity(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ItemTotalResponse{ItemID: itemID, QuantityAvailable: total})
}
