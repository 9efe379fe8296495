package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/status"
	"stockbook/internal/metadata"
)

// MetadataHandler serves form configuration, request schemas and the
// status reference table.
type MetadataHandler struct {
	*BaseHandler
	registry *metadata.Registry
	statuses *status.Registry
}

func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry, statuses *status.Registry) *MetadataHandler {
	return &MetadataHandler{BaseHandler: base, registry: registry, statuses: statuses}
}

// ListForms handles GET /meta/forms
func (h *MetadataHandler) ListForms(c *gin.Context) {
	h.OK(c, gin.H{"results": h.registry.List()})
}

// GetForm handles GET /meta/forms/:name
func (h *MetadataHandler) GetForm(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("form", name))
		return
	}
	h.OK(c, def)
}

// GetSchema handles GET /meta/schemas/:name
func (h *MetadataHandler) GetSchema(c *gin.Context) {
	name := c.Param("name")
	schema, ok := h.registry.Schema(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("schema", name))
		return
	}
	h.OK(c, schema)
}

// Statuses handles GET /meta/statuses
func (h *MetadataHandler) Statuses(c *gin.Context) {
	if h.statuses == nil {
		h.Error(c, apperror.NewUnavailable("status registry", nil))
		return
	}
	h.OK(c, gin.H{"results": h.statuses.References()})
}
