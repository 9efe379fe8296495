// Package documents holds what every purchasing and inventory document shares:
// header and line shapes, line diffing, parent reconciliation and the save plan
// that runs a document's effects as one saga inside one transaction.
package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/domain/status"
)

// Header is the common part of every document header.
type Header struct {
	entity.BaseDocument

	Number string        `db:"number" json:"number"`
	Date   time.Time     `db:"date" json:"date"`
	Status status.Status `db:"status" json:"status"`
	Memo   string        `db:"memo" json:"memo,omitempty"`

	// Totals, recomputed from lines on every save
	TotalNet   decimal.Decimal `db:"total_net" json:"totalNet"`
	TotalTax   decimal.Decimal `db:"total_tax" json:"totalTax"`
	TotalGross decimal.Decimal `db:"total_gross" json:"totalGross"`
}

// NewHeader creates an open header dated today.
func NewHeader() Header {
	now := time.Now().UTC()
	return Header{
		BaseDocument: entity.NewBaseDocument(),
		Date:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Status:       status.Open,
	}
}

// ValidateHeader checks the fields every document needs.
func (h *Header) ValidateHeader(_ context.Context) error {
	if h.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if h.Status == "" {
		h.Status = status.Open
	}
	if _, err := status.Parse(string(h.Status)); err != nil {
		return err
	}
	return nil
}

// SetTotals stores totals computed from the lines.
func (h *Header) SetTotals(t Totals) {
	h.TotalNet = t.Net
	h.TotalTax = t.Tax
	h.TotalGross = t.Gross
}

// GetHeader gives generic code access to the common header.
func (h *Header) GetHeader() *Header {
	return h
}

// Document is implemented by every document type.
type Document interface {
	entity.Validatable
	GetHeader() *Header
}
