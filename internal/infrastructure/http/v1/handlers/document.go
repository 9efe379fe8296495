package handlers

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	domainFilter "stockbook/internal/domain/filter"
	"stockbook/internal/domain/journal"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// DocumentService is what every document service offers the HTTP layer.
type DocumentService[T documents.Document] interface {
	Create(ctx context.Context, doc T) error
	Get(ctx context.Context, docID id.ID) (T, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, docID id.ID) error
	BulkDelete(ctx context.Context, ids []id.ID) error
}

// JournalReader lists the GL entries of a source document.
type JournalReader interface {
	ForSource(ctx context.Context, sourceType journal.SourceType, sourceID id.ID) ([]journal.Entry, error)
}

// DocumentHandler provides generic HTTP handlers for document entities.
type DocumentHandler[T documents.Document, Req any] struct {
	*BaseHandler
	service    DocumentService[T]
	journal    JournalReader
	sourceType journal.SourceType

	mapCreate func(req Req) T
	mapUpdate func(req Req, existing T) T
}

// DocumentHandlerConfig configures the document handler.
type DocumentHandlerConfig[T documents.Document, Req any] struct {
	Service    DocumentService[T]
	Journal    JournalReader
	SourceType journal.SourceType
	MapCreate  func(req Req) T
	MapUpdate  func(req Req, existing T) T
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler[T documents.Document, Req any](
	base *BaseHandler,
	cfg DocumentHandlerConfig[T, Req],
) *DocumentHandler[T, Req] {
	return &DocumentHandler[T, Req]{
		BaseHandler: base,
		service:     cfg.Service,
		journal:     cfg.Journal,
		sourceType:  cfg.SourceType,
		mapCreate:   cfg.MapCreate,
		mapUpdate:   cfg.MapUpdate,
	}
}

// ListFilterFromQuery reads search, paging, ordering and the JSON "filter"
// parameter shared by document and catalog lists.
func (h *BaseHandler) ListFilterFromQuery(c *gin.Context, defaultOrder string) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Page = h.ParseIntQuery(c, "page", 1)
	filter.PageSize = h.ParseIntQuery(c, "pageSize", domain.DefaultPageSize)
	filter.OrderBy = c.DefaultQuery("orderBy", defaultOrder)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	ids, err := dto.ParseIDs("ids", c.QueryArray("ids"))
	if err != nil {
		h.Error(c, err)
		return filter, false
	}
	filter.IDs = ids

	if raw := c.Query("filter"); raw != "" {
		var items []domainFilter.Item
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)").WithDetail("field", "filter"))
			return filter, false
		}
		filter.Filters = items
	}
	filter.Normalize()
	return filter, true
}

// List handles GET /{documents}
func (h *DocumentHandler[T, Req]) List(c *gin.Context) {
	filter, ok := h.ListFilterFromQuery(c, "")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if result.Results == nil {
		result.Results = []T{}
	}
	h.OK(c, result)
}

// Get handles GET /{documents}/:id
func (h *DocumentHandler[T, Req]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST /{documents}
func (h *DocumentHandler[T, Req]) Create(c *gin.Context) {
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	doc := h.mapCreate(req)
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Update handles PUT /{documents}/:id
// The request replaces the lines when it carries any line envelope.
func (h *DocumentHandler[T, Req]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.Get(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	doc := h.mapUpdate(req, existing)
	doc.GetHeader().ID = docID

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	saved, err := h.service.Get(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, saved)
}

// Delete handles DELETE /{documents}/:id
func (h *DocumentHandler[T, Req]) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// BulkDelete handles POST /{documents}/bulk-delete
func (h *DocumentHandler[T, Req]) BulkDelete(c *gin.Context) {
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Journal handles GET /{documents}/:id/journal
func (h *DocumentHandler[T, Req]) Journal(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if _, err := h.service.Get(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	// Orders and transfers never touch the GL.
	if h.journal == nil || h.sourceType == "" {
		h.OK(c, gin.H{"results": []journal.Entry{}})
		return
	}
	entries, err := h.journal.ForSource(c.Request.Context(), h.sourceType, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	h.OK(c, gin.H{"results": entries})
}
