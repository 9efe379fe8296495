// Package domain provides shared business contracts: list filters, pagination
// and catalog repositories.
package domain

import (
	"context"

	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches code/name (catalogs) or number/memo (documents)
	Search string

	IDs []id.ID

	// IncludeDeleted includes catalog records with a deletion mark
	IncludeDeleted bool

	Filters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-date")
	OrderBy string

	// Page is 1-based.
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// DefaultListFilter returns the first page ordered by name.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "name",
	}
}

// Normalize clamps paging values into range.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Limit is the SQL LIMIT for the current page.
func (f ListFilter) Limit() int {
	return f.PageSize
}

// Offset is the SQL OFFSET for the current page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// ListResult is the paginated envelope returned by every list endpoint.
type ListResult[T any] struct {
	Results     []T   `json:"results"`
	TotalItems  int64 `json:"totalItems"`
	PageSize    int   `json:"pageSize"`
	CurrentPage int   `json:"currentPage"`
}

// NewListResult builds an envelope for items of the page described by f.
func NewListResult[T any](items []T, total int64, f ListFilter) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{
		Results:     items,
		TotalItems:  total,
		PageSize:    f.PageSize,
		CurrentPage: f.Page,
	}
}

// MapListResult converts the items of a result, keeping the paging fields.
func MapListResult[T, R any](in ListResult[T], fn func(T) R) ListResult[R] {
	out := make([]R, len(in.Results))
	for i, v := range in.Results {
		out[i] = fn(v)
	}
	return ListResult[R]{
		Results:     out,
		TotalItems:  in.TotalItems,
		PageSize:    in.PageSize,
		CurrentPage: in.CurrentPage,
	}
}

// --- Repository Interfaces ---

// CatalogRepository defines CRUD operations for catalog entities.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByCode(ctx context.Context, code string) (T, error)

	// Update modifies existing entity (with optimistic locking)
	Update(ctx context.Context, entity T) error

	// Delete sets the deletion mark. Catalog rows stay for document references.
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
