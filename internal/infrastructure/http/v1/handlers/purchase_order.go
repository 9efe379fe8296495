package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReceiptDrafter prefills item receipts from purchase orders.
type ReceiptDrafter interface {
	ReceiptDraft(ctx context.Context, docID id.ID) (*purchase_order.ReceiptDraft, error)
}

// PurchaseOrderHandler adds order-specific routes to the generic document
// handler.
type PurchaseOrderHandler struct {
	*DocumentHandler[*purchase_order.PurchaseOrder, dto.PurchaseOrderRequest]
	drafts ReceiptDrafter
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service, journal JournalReader) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		DocumentHandler: NewDocumentHandler(base, DocumentHandlerConfig[*purchase_order.PurchaseOrder, dto.PurchaseOrderRequest]{
			Service:   service,
			Journal:   journal,
			MapCreate: dto.PurchaseOrderRequest.New,
			MapUpdate: dto.PurchaseOrderRequest.Apply,
		}),
		drafts: service,
	}
}

// ReceiptDraft handles GET /purchase-orders/:id/receipt-draft
func (h *PurchaseOrderHandler) ReceiptDraft(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	draft, err := h.drafts.ReceiptDraft(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, draft)
}
