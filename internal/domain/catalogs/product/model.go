// Package product provides the product catalog: inventory goods and services.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
)

// Type tells whether a product carries inventory.
type Type string

const (
	// TypeInventory products have on-hand quantity and an average cost.
	TypeInventory Type = "inventory"
	// TypeService products are never counted or valued.
	TypeService Type = "service"
)

// Product is an item that appears on purchasing and inventory documents.
type Product struct {
	entity.Catalog

	Type Type `db:"type" json:"type"`

	// Unit is the unit of measure label (pcs, kg, box)
	Unit string `db:"unit" json:"unit,omitempty"`

	// AverageCost is the global weighted-average unit cost across all locations.
	AverageCost decimal.Decimal `db:"average_cost" json:"averageCost"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a product with zero average cost.
func NewProduct(code, name string, t Type) *Product {
	return &Product{
		Catalog:     entity.NewCatalog(code, name),
		Type:        t,
		AverageCost: decimal.Zero,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Type {
	case TypeInventory, TypeService:
	default:
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if p.AverageCost.IsNegative() {
		return apperror.NewValidation("average cost cannot be negative").
			WithDetail("field", "averageCost")
	}

	if p.Type == TypeService && !p.AverageCost.IsZero() {
		return apperror.NewValidation("services have no average cost").
			WithDetail("field", "averageCost")
	}

	p.Unit = strings.TrimSpace(p.Unit)
	return nil
}

// IsInventory reports whether the product is counted and valued.
func (p *Product) IsInventory() bool {
	return p.Type == TypeInventory
}
