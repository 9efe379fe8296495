package domain

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

type deletable interface {
	SetDeletionMark(bool)
	IsDeleted() bool
}

type named interface {
	GetName() string
}

// MemoryCatalogRepository is an in-memory CatalogRepository for unit tests.
type MemoryCatalogRepository[T CodedEntity] struct {
	mu    sync.Mutex
	items map[id.ID]T
	order []id.ID
}

// NewMemoryCatalogRepository creates an empty repository.
func NewMemoryCatalogRepository[T CodedEntity]() *MemoryCatalogRepository[T] {
	return &MemoryCatalogRepository[T]{items: make(map[id.ID]T)}
}

func (m *MemoryCatalogRepository[T]) Create(_ context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[e.GetID()]; ok {
		return apperror.NewDuplicate("entity", "id", e.GetID().String())
	}
	m.items[e.GetID()] = e
	m.order = append(m.order, e.GetID())
	return nil
}

func (m *MemoryCatalogRepository[T]) GetByID(_ context.Context, entityID id.ID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("entity", entityID.String())
	}
	return e, nil
}

func (m *MemoryCatalogRepository[T]) GetByCode(_ context.Context, code string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.GetCode() == code {
			return e, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("entity", code)
}

func (m *MemoryCatalogRepository[T]) Update(_ context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[e.GetID()]; !ok {
		return apperror.NewNotFound("entity", e.GetID().String())
	}
	m.items[e.GetID()] = e
	return nil
}

func (m *MemoryCatalogRepository[T]) Delete(_ context.Context, entityID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[entityID]
	if !ok {
		return apperror.NewNotFound("entity", entityID.String())
	}
	if d, ok := any(e).(deletable); ok {
		d.SetDeletionMark(true)
	}
	return nil
}

func (m *MemoryCatalogRepository[T]) List(_ context.Context, f ListFilter) (ListResult[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[id.ID]bool, len(f.IDs))
	for _, v := range f.IDs {
		wanted[v] = true
	}
	search := strings.ToLower(f.Search)

	var matched []T
	for _, entityID := range m.order {
		e := m.items[entityID]
		if len(wanted) > 0 && !wanted[entityID] {
			continue
		}
		if d, ok := any(e).(deletable); ok && d.IsDeleted() && !f.IncludeDeleted {
			continue
		}
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].GetCode() < matched[j].GetCode() })

	total := int64(len(matched))
	start := min(f.Offset(), len(matched))
	end := len(matched)
	if f.Limit() > 0 {
		end = min(start+f.Limit(), len(matched))
	}
	return NewListResult(matched[start:end], total, f), nil
}

func (m *MemoryCatalogRepository[T]) ExistsByCode(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.GetCode() == code {
			return true, nil
		}
	}
	return false, nil
}

func matchesSearch(e CodedEntity, search string) bool {
	if strings.Contains(strings.ToLower(e.GetCode()), search) {
		return true
	}
	if n, ok := e.(named); ok {
		return strings.Contains(strings.ToLower(n.GetName()), search)
	}
	return false
}
