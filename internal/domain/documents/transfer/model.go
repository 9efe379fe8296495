// Package transfer provides the InventoryTransfer document: quantity moved
// between two locations with no cost or ledger effect.
package transfer

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
)

// DocType names transfers in audit entries, events and locks.
const DocType = "inventory_transfer"

// InventoryTransfer moves goods from one location to another. It is closed on
// save.
type InventoryTransfer struct {
	documents.Header

	FromLocationID id.ID `db:"from_location_id" json:"fromLocationId"`
	ToLocationID   id.ID `db:"to_location_id" json:"toLocationId"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a transferred item.
type Line struct {
	documents.Line
}

func lineOf(l *Line) *documents.Line { return &l.Line }

// NewInventoryTransfer creates a transfer.
func NewInventoryTransfer(from, to id.ID) *InventoryTransfer {
	return &InventoryTransfer{Header: documents.NewHeader(), FromLocationID: from, ToLocationID: to}
}

// Validate implements entity.Validatable.
func (t *InventoryTransfer) Validate(ctx context.Context) error {
	if err := t.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(t.FromLocationID) {
		return apperror.NewValidation("source location is required").WithDetail("field", "fromLocationId")
	}
	if id.IsNil(t.ToLocationID) {
		return apperror.NewValidation("destination location is required").WithDetail("field", "toLocationId")
	}
	if t.FromLocationID == t.ToLocationID {
		return apperror.NewValidation("source and destination locations must differ").WithDetail("field", "toLocationId")
	}
	return nil
}

// Clone copies the header without lines.
func (t *InventoryTransfer) Clone() *InventoryTransfer {
	c := *t
	c.Lines = nil
	return &c
}
