package entity

import (
	"context"
	"strings"

	"stockbook/internal/core/apperror"
)

// Catalog is the base type for reference data (products, locations, vendors).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, unique per catalog
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// DeletionMark hides the record from pickers without breaking document references
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(c.Code) == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	return nil
}

// GetCode returns the catalog code.
func (c *Catalog) GetCode() string {
	return c.Code
}

// SetDeletionMark marks or unmarks the record as deleted.
func (c *Catalog) SetDeletionMark(v bool) {
	c.DeletionMark = v
}

// IsDeleted reports the deletion mark.
func (c *Catalog) IsDeleted() bool {
	return c.DeletionMark
}

// GetName returns the display name.
func (c *Catalog) GetName() string {
	return c.Name
}
