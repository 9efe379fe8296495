// Package id provides UUIDv7 generation for all entities.
package id

import (
	"sort"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered, good B-tree locality).
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// IsNilPtr reports whether p is nil or points to the zero ID.
func IsNilPtr(p *ID) bool {
	return p == nil || *p == uuid.Nil
}

// Unique returns ids without duplicates and nil values, sorted by string form.
func Unique(ids []ID) []ID {
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, v := range ids {
		if v == uuid.Nil {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// SamePtr reports whether a and b refer to the same ID, treating nil and the
// zero ID alike.
func SamePtr(a, b *ID) bool {
	if IsNilPtr(a) || IsNilPtr(b) {
		return IsNilPtr(a) == IsNilPtr(b)
	}
	return *a == *b
}
