package documents

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/status"
)

// Cloneable documents copy their header for the in-memory store.
type Cloneable[H any] interface {
	Document
	Clone() H
}

// MemoryStore is an in-memory Store for unit tests. It hands out copies so
// callers never alias stored rows.
type MemoryStore[H Cloneable[H], L any] struct {
	mu      sync.Mutex
	name    string
	headers map[id.ID]H
	lines   map[id.ID][]L
	line    func(*L) *Line
}

// NewMemoryStore creates an empty store. name is used in not-found errors.
func NewMemoryStore[H Cloneable[H], L any](name string, line func(*L) *Line) *MemoryStore[H, L] {
	return &MemoryStore[H, L]{
		name:    name,
		headers: make(map[id.ID]H),
		lines:   make(map[id.ID][]L),
		line:    line,
	}
}

func (m *MemoryStore[H, L]) Create(_ context.Context, doc H) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docID := doc.GetHeader().ID
	if _, ok := m.headers[docID]; ok {
		return apperror.NewDuplicate(m.name, "id", docID.String())
	}
	m.headers[docID] = doc.Clone()
	return nil
}

func (m *MemoryStore[H, L]) GetByID(_ context.Context, docID id.ID) (H, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.headers[docID]
	if !ok {
		var zero H
		return zero, apperror.NewNotFound(m.name, docID.String())
	}
	return doc.Clone(), nil
}

func (m *MemoryStore[H, L]) GetForUpdate(ctx context.Context, docID id.ID) (H, error) {
	return m.GetByID(ctx, docID)
}

func (m *MemoryStore[H, L]) Update(_ context.Context, doc H) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := doc.GetHeader()
	stored, ok := m.headers[h.ID]
	if !ok {
		return apperror.NewNotFound(m.name, h.ID.String())
	}
	if stored.GetHeader().Version != h.Version {
		return apperror.NewConcurrentModification(m.name, h.ID.String())
	}
	h.Version++
	m.headers[h.ID] = doc.Clone()
	return nil
}

func (m *MemoryStore[H, L]) Delete(_ context.Context, docID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.headers[docID]; !ok {
		return apperror.NewNotFound(m.name, docID.String())
	}
	delete(m.headers, docID)
	delete(m.lines, docID)
	return nil
}

func (m *MemoryStore[H, L]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[H], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Normalize()

	wanted := make(map[id.ID]bool, len(f.IDs))
	for _, v := range f.IDs {
		wanted[v] = true
	}
	search := strings.ToLower(f.Search)

	var all []H
	for docID, doc := range m.headers {
		h := doc.GetHeader()
		if len(wanted) > 0 && !wanted[docID] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(h.Number), search) &&
			!strings.Contains(strings.ToLower(h.Memo), search) {
			continue
		}
		all = append(all, doc.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].GetHeader(), all[j].GetHeader()
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Number > b.Number
	})

	total := int64(len(all))
	start := min(f.Offset(), len(all))
	end := min(start+f.Limit(), len(all))
	return domain.NewListResult(all[start:end], total, f), nil
}

func (m *MemoryStore[H, L]) GetLines(_ context.Context, docID id.ID) ([]L, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]L(nil), m.lines[docID]...), nil
}

func (m *MemoryStore[H, L]) SaveLines(_ context.Context, docID id.ID, ch LineChanges[L]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := make(map[id.ID]bool, len(ch.Delete))
	for _, lineID := range ch.Delete {
		deleted[lineID] = true
	}
	updated := make(map[id.ID]L, len(ch.Update))
	for _, l := range ch.Update {
		updated[m.line(&l).LineID] = l
	}

	var out []L
	for _, l := range m.lines[docID] {
		lineID := m.line(&l).LineID
		if deleted[lineID] {
			continue
		}
		if u, ok := updated[lineID]; ok {
			l = u
		}
		out = append(out, l)
	}
	out = append(out, ch.Insert...)
	sort.SliceStable(out, func(i, j int) bool { return m.line(&out[i]).LineNo < m.line(&out[j]).LineNo })
	m.lines[docID] = out
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryStore[H, L]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.headers)
}

// Counter returns a ParentStore over one consumed counter of the stored
// lines. When derive is false, SetStatus leaves headers untouched.
func (m *MemoryStore[H, L]) Counter(consumed func(*L) *types.Quantity, derive bool) *MemoryCounter[H, L] {
	return &MemoryCounter[H, L]{store: m, consumed: consumed, derive: derive}
}

// MemoryCounter is an in-memory ParentStore.
type MemoryCounter[H Cloneable[H], L any] struct {
	store    *MemoryStore[H, L]
	consumed func(*L) *types.Quantity
	derive   bool
}

func (c *MemoryCounter[H, L]) row(docID id.ID, l *L) ParentLineRow {
	return ParentLineRow{
		DocumentID: docID,
		LineID:     c.store.line(l).LineID,
		Ordered:    c.store.line(l).Quantity,
		Consumed:   *c.consumed(l),
	}
}

func (c *MemoryCounter[H, L]) LockParentLines(_ context.Context, lineIDs []id.ID) ([]ParentLineRow, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	wanted := make(map[id.ID]bool, len(lineIDs))
	for _, v := range lineIDs {
		wanted[v] = true
	}
	var rows []ParentLineRow
	for docID, lines := range c.store.lines {
		for i := range lines {
			if wanted[c.store.line(&lines[i]).LineID] {
				rows = append(rows, c.row(docID, &lines[i]))
			}
		}
	}
	return rows, nil
}

func (c *MemoryCounter[H, L]) SetConsumed(_ context.Context, consumed map[id.ID]types.Quantity) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, lines := range c.store.lines {
		for i := range lines {
			if q, ok := consumed[c.store.line(&lines[i]).LineID]; ok {
				*c.consumed(&lines[i]) = q
			}
		}
	}
	return nil
}

func (c *MemoryCounter[H, L]) ParentLinesOf(_ context.Context, docIDs []id.ID) ([]ParentLineRow, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var rows []ParentLineRow
	for _, docID := range docIDs {
		lines := c.store.lines[docID]
		for i := range lines {
			rows = append(rows, c.row(docID, &lines[i]))
		}
	}
	return rows, nil
}

func (c *MemoryCounter[H, L]) SetStatus(_ context.Context, docID id.ID, s status.Status) (bool, error) {
	if !c.derive {
		return false, nil
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	doc, ok := c.store.headers[docID]
	if !ok {
		return false, apperror.NewNotFound(c.store.name, docID.String())
	}
	h := doc.GetHeader()
	if h.Status == s {
		return false, nil
	}
	h.Status = s
	return true, nil
}
