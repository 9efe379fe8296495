// Package reconcile tracks how much of an upstream line downstream documents consume.
//
// A downstream line (an item receipt line, say) may point at a parent line
// (the purchase order line it receives). When a downstream document is saved,
// its prior and current line sets are compared and only the net change per
// parent line is applied to the parent's consumed counter. Several downstream
// lines, possibly on different documents, may share one parent line, so the
// counter is never overwritten with a single line's quantity.
package reconcile

import (
	"strconv"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/status"
)

// TempKeyPrefix marks keys of lines that were never persisted.
const TempKeyPrefix = "tmp:"

// LineKey returns the stable key of a downstream line: its persisted id, or the
// client temp id for lines that are not saved yet.
func LineKey(lineID id.ID, tempID string) string {
	if !id.IsNil(lineID) {
		return lineID.String()
	}
	if tempID != "" {
		return TempKeyPrefix + tempID
	}
	return ""
}

// LineRef is the part of a downstream line reconciliation looks at.
type LineRef struct {
	Key          string
	ParentLineID *id.ID
	Quantity     types.Quantity
}

type snapshot struct {
	parent   *id.ID
	quantity types.Quantity
}

// ParentDeltas returns the net quantity change per parent line between the prior
// and current line sets. Lines without a parent are ignored. A line that moved
// to a different parent counts as removed from the old one and added to the new.
func ParentDeltas(prior, current []LineRef) map[id.ID]types.Quantity {
	before := index(prior)
	after := index(current)
	deltas := make(map[id.ID]types.Quantity)

	add := func(parent *id.ID, q types.Quantity) {
		if id.IsNilPtr(parent) || q == 0 {
			return
		}
		deltas[*parent] += q
	}

	for key, old := range before {
		cur, ok := after[key]
		switch {
		case !ok:
			add(old.parent, -old.quantity)
		case sameParent(old.parent, cur.parent):
			add(old.parent, cur.quantity-old.quantity)
		default:
			add(old.parent, -old.quantity)
			add(cur.parent, cur.quantity)
		}
	}
	for key, cur := range after {
		if _, ok := before[key]; !ok {
			add(cur.parent, cur.quantity)
		}
	}

	for parent, q := range deltas {
		if q == 0 {
			delete(deltas, parent)
		}
	}
	return deltas
}

func index(lines []LineRef) map[string]snapshot {
	out := make(map[string]snapshot, len(lines))
	for i, l := range lines {
		key := l.Key
		if key == "" {
			// keyless lines cannot be matched; treat each as its own line
			key = "#" + strconv.Itoa(i)
		}
		s := out[key]
		s.parent = l.ParentLineID
		s.quantity += l.Quantity
		out[key] = s
	}
	return out
}

func sameParent(a, b *id.ID) bool {
	if id.IsNilPtr(a) || id.IsNilPtr(b) {
		return id.IsNilPtr(a) && id.IsNilPtr(b)
	}
	return *a == *b
}

// ParentLine is an upstream line with its consumption counter.
type ParentLine struct {
	LineID   id.ID
	Ordered  types.Quantity
	Consumed types.Quantity
}

// Remaining returns the quantity not yet consumed.
func (p ParentLine) Remaining() types.Quantity {
	if r := p.Ordered - p.Consumed; r > 0 {
		return r
	}
	return 0
}

// Adjustment records what Apply did to one parent line.
type Adjustment struct {
	LineID    id.ID
	Before    types.Quantity
	After     types.Quantity
	Requested types.Quantity
	// Clamped is set when the delta pushed the counter outside [0, Ordered].
	Clamped bool
}

// Apply adds each line's delta to its consumed counter, clamped to [0, Ordered].
// Lines without a delta are returned unchanged. Deltas for unknown lines are ignored.
func Apply(lines []ParentLine, deltas map[id.ID]types.Quantity) ([]ParentLine, []Adjustment) {
	out := make([]ParentLine, len(lines))
	var adjustments []Adjustment
	for i, l := range lines {
		out[i] = l
		delta, ok := deltas[l.LineID]
		if !ok {
			continue
		}
		upper := l.Ordered
		if upper < 0 {
			upper = 0
		}
		raw := l.Consumed + delta
		next := raw.Clamp(0, upper)
		out[i].Consumed = next
		adjustments = append(adjustments, Adjustment{
			LineID:    l.LineID,
			Before:    l.Consumed,
			After:     next,
			Requested: delta,
			Clamped:   next != raw,
		})
	}
	return out, adjustments
}

// DeriveStatus is Closed when every line is fully consumed and Open otherwise.
// A document without lines is Open.
func DeriveStatus(lines []ParentLine) status.Status {
	if len(lines) == 0 {
		return status.Open
	}
	for _, l := range lines {
		if l.Consumed < l.Ordered {
			return status.Open
		}
	}
	return status.Closed
}
