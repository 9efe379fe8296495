package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/journal"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// JournalHandler lists GL impact across documents.
type JournalHandler struct {
	*BaseHandler
	reader JournalReader
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(base *BaseHandler, reader JournalReader) *JournalHandler {
	return &JournalHandler{BaseHandler: base, reader: reader}
}

// ForSource handles GET /journal?sourceType=&sourceId=
func (h *JournalHandler) ForSource(c *gin.Context) {
	sourceType := journal.SourceType(c.Query("sourceType"))
	if sourceType == "" {
		h.Error(c, apperror.NewValidation("sourceType is required").WithDetail("field", "sourceType"))
		return
	}
	sourceID, err := dto.ParseOptionalID("sourceId", c.Query("sourceId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if sourceID == nil {
		h.Error(c, apperror.NewValidation("sourceId is required").WithDetail("field", "sourceId"))
		return
	}

	entries, err := h.reader.ForSource(c.Request.Context(), sourceType, *sourceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	h.OK(c, gin.H{"results": entries})
}
