// Package adjustment provides the InventoryAdjustment document: signed
// quantity corrections at one location.
package adjustment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
)

// DocType names adjustments in audit entries, events and locks.
const DocType = "inventory_adjustment"

// InventoryAdjustment corrects on-hand at a location. It is closed on save.
type InventoryAdjustment struct {
	documents.Header

	LocationID id.ID  `db:"location_id" json:"locationId"`
	Reason     string `db:"reason" json:"reason"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a signed quantity change. Positive lines receive at UnitCost, or at
// the item's current average when UnitCost is blank; negative lines ship out
// at the current average. Rate holds the cost actually applied.
type Line struct {
	documents.Line

	UnitCost *decimal.Decimal `db:"unit_cost" json:"unitCost,omitempty"`
}

func lineOf(l *Line) *documents.Line { return &l.Line }

// NewInventoryAdjustment creates an adjustment.
func NewInventoryAdjustment(locationID id.ID) *InventoryAdjustment {
	return &InventoryAdjustment{Header: documents.NewHeader(), LocationID: locationID}
}

// Validate implements entity.Validatable.
func (a *InventoryAdjustment) Validate(ctx context.Context) error {
	if err := a.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(a.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	fields := make(map[string][]string)
	for i, l := range a.Lines {
		if l.UnitCost != nil && l.UnitCost.IsNegative() {
			key := fmt.Sprintf("lines[%d].unitCost", i)
			fields[key] = append(fields[key], "cannot be negative")
		}
	}
	if len(fields) > 0 {
		return apperror.NewFieldValidation(fields)
	}
	return nil
}

// Clone copies the header without lines.
func (a *InventoryAdjustment) Clone() *InventoryAdjustment {
	c := *a
	c.Lines = nil
	return &c
}
