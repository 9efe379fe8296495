package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReportsService is the part of reports.Service the HTTP layer uses.
type ReportsService interface {
	InventoryValuation(ctx context.Context, filter reports.ValuationFilter) (*reports.Valuation, error)
	GetDocumentJournal(ctx context.Context, filter reports.DocumentJournalFilter) (*reports.DocumentJournal, error)
}

var _ ReportsService = (*reports.Service)(nil)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service ReportsService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service ReportsService) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// InventoryValuation handles GET /reports/inventory-valuation
// ?format=xlsx returns a workbook instead of JSON.
func (h *ReportsHandler) InventoryValuation(c *gin.Context) {
	var q dto.ValuationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.InventoryValuation(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	if q.Format != "xlsx" {
		h.OK(c, v)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteValuationXLSX(&buf, v); err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("write valuation workbook: %w", err)))
		return
	}
	name := fmt.Sprintf("inventory-valuation-%s.xlsx", v.AsOf.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, reports.XLSXContentType, buf.Bytes())
}

// DocumentJournal handles GET /reports/document-journal
func (h *ReportsHandler) DocumentJournal(c *gin.Context) {
	var q dto.DocumentJournalQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	journal, err := h.service.GetDocumentJournal(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, journal)
}
