// Package location provides the location catalog: warehouses, stores and bins
// that hold inventory.
package location

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
)

// Location is a place where stock is counted.
type Location struct {
	entity.Catalog

	// IsActive indicates if the location accepts movements
	IsActive bool `db:"is_active" json:"isActive"`

	Address *string `db:"address" json:"address,omitempty"`
}

// NewLocation creates an active location.
func NewLocation(code, name string) *Location {
	return &Location{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	return l.Catalog.Validate(ctx)
}

// CanMoveStock returns an error when documents may not post to the location.
func (l *Location) CanMoveStock() error {
	if !l.IsActive || l.DeletionMark {
		return apperror.NewBusinessRule("location.inactive", "location is not active").
			WithDetail("location_id", l.ID.String()).
			WithDetail("code", l.Code)
	}
	return nil
}
