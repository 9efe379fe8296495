package dto

import (
	"stockbook/internal/core/entity"
	"stockbook/internal/domain/catalogs/location"
	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/catalogs/vendor"
)

// CatalogFields are shared by every catalog update request.
type CatalogFields struct {
	Code       *string           `json:"code" binding:"omitempty,max=50"`
	Name       *string           `json:"name" binding:"omitempty,min=1,max=200"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required,min=1"`
}

func (f CatalogFields) apply(c *entity.Catalog) {
	if f.Code != nil {
		c.Code = *f.Code
	}
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Attributes != nil {
		c.Attributes = f.Attributes
	}
	c.Version = f.Version
}

// --- Product ---

// CreateProductRequest creates a product. The code is generated when blank.
// Average cost is never accepted from clients.
type CreateProductRequest struct {
	Code        string            `json:"code" binding:"max=50"`
	Name        string            `json:"name" binding:"required,max=200"`
	Type        product.Type      `json:"type" binding:"required,oneof=inventory service"`
	Unit        string            `json:"unit" binding:"max=20"`
	Description *string           `json:"description"`
	Attributes  entity.Attributes `json:"attributes"`
}

// ToDomain builds the product.
func (r CreateProductRequest) ToDomain() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.Type)
	p.Unit = r.Unit
	p.Description = r.Description
	p.Attributes = r.Attributes
	return p
}

// UpdateProductRequest edits a product.
type UpdateProductRequest struct {
	CatalogFields
	Type        *product.Type `json:"type" binding:"omitempty,oneof=inventory service"`
	Unit        *string       `json:"unit" binding:"omitempty,max=20"`
	Description *string       `json:"description"`
}

// Apply overlays the request on p.
func (r UpdateProductRequest) Apply(p *product.Product) *product.Product {
	r.CatalogFields.apply(&p.Catalog)
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	return p
}

// --- Location ---

// CreateLocationRequest creates a location.
type CreateLocationRequest struct {
	Code       string            `json:"code" binding:"required,max=50"`
	Name       string            `json:"name" binding:"required,max=200"`
	IsActive   *bool             `json:"isActive"`
	Address    *string           `json:"address"`
	Attributes entity.Attributes `json:"attributes"`
}

// ToDomain builds the location.
func (r CreateLocationRequest) ToDomain() *location.Location {
	l := location.NewLocation(r.Code, r.Name)
	if r.IsActive != nil {
		l.IsActive = *r.IsActive
	}
	l.Address = r.Address
	l.Attributes = r.Attributes
	return l
}

// UpdateLocationRequest edits a location.
type UpdateLocationRequest struct {
	CatalogFields
	IsActive *bool   `json:"isActive"`
	Address  *string `json:"address"`
}

// Apply overlays the request on l.
func (r UpdateLocationRequest) Apply(l *location.Location) *location.Location {
	r.CatalogFields.apply(&l.Catalog)
	if r.IsActive != nil {
		l.IsActive = *r.IsActive
	}
	if r.Address != nil {
		l.Address = r.Address
	}
	return l
}

// --- Vendor ---

// CreateVendorRequest creates a vendor. The code is generated when blank.
type CreateVendorRequest struct {
	Code             string            `json:"code" binding:"max=50"`
	Name             string            `json:"name" binding:"required,max=200"`
	TaxID            *string           `json:"taxId"`
	Email            *string           `json:"email" binding:"omitempty,email"`
	Phone            *string           `json:"phone" binding:"omitempty,max=30"`
	PaymentTermsDays *int              `json:"paymentTermsDays" binding:"omitempty,min=0,max=365"`
	Attributes       entity.Attributes `json:"attributes"`
}

// ToDomain builds the vendor.
func (r CreateVendorRequest) ToDomain() *vendor.Vendor {
	v := vendor.NewVendor(r.Code, r.Name)
	v.TaxID = r.TaxID
	v.Email = r.Email
	v.Phone = r.Phone
	if r.PaymentTermsDays != nil {
		v.PaymentTermsDays = *r.PaymentTermsDays
	}
	v.Attributes = r.Attributes
	return v
}

// UpdateVendorRequest edits a vendor.
type UpdateVendorRequest struct {
	CatalogFields
	TaxID            *string `json:"taxId"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Phone            *string `json:"phone" binding:"omitempty,max=30"`
	PaymentTermsDays *int    `json:"paymentTermsDays" binding:"omitempty,min=0,max=365"`
}

// Apply overlays the request on v.
func (r UpdateVendorRequest) Apply(v *vendor.Vendor) *vendor.Vendor {
	r.CatalogFields.apply(&v.Catalog)
	if r.TaxID != nil {
		v.TaxID = r.TaxID
	}
	if r.Email != nil {
		v.Email = r.Email
	}
	if r.Phone != nil {
		v.Phone = r.Phone
	}
	if r.PaymentTermsDays != nil {
		v.PaymentTermsDays = *r.PaymentTermsDays
	}
	return v
}
