// Package status holds the document status enum and its reference-data mapping.
//
// Documents store the symbolic value. API clients that still address statuses
// by their reference UUID go through Registry, which is loaded once at startup.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

// Status is a document lifecycle status.
type Status string

const (
	Open   Status = "open"
	Closed Status = "closed"
)

// All lists every status the service understands.
func All() []Status {
	return []Status{Open, Closed}
}

// Parse converts a code (case-insensitive) to a Status.
func Parse(code string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(code))); s {
	case Open, Closed:
		return s, nil
	default:
		return "", apperror.NewValidation(fmt.Sprintf("unknown status %q", code)).
			WithDetail("field", "status")
	}
}

// UnmarshalJSON accepts the status code.
func (s *Status) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed, err := Parse(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Reference is one row of the status reference table.
type Reference struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Source loads the status reference table.
type Source interface {
	ListStatuses(ctx context.Context) ([]Reference, error)
}

// Registry maps statuses to and from reference ids.
type Registry struct {
	mu     sync.RWMutex
	byCode map[Status]Reference
	byID   map[id.ID]Status
}

// Load reads the reference table and requires every known status to be present.
func Load(ctx context.Context, src Source) (*Registry, error) {
	refs, err := src.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	return NewRegistry(refs)
}

// NewRegistry builds a registry from reference rows. Unknown codes are ignored.
func NewRegistry(refs []Reference) (*Registry, error) {
	r := &Registry{
		byCode: make(map[Status]Reference, len(refs)),
		byID:   make(map[id.ID]Status, len(refs)),
	}
	for _, ref := range refs {
		s, err := Parse(ref.Code)
		if err != nil {
			continue
		}
		r.byCode[s] = ref
		r.byID[ref.ID] = s
	}
	for _, s := range All() {
		if _, ok := r.byCode[s]; !ok {
			return nil, fmt.Errorf("status %q missing from reference data", s)
		}
	}
	return r, nil
}

// ID returns the reference id of s.
func (r *Registry) ID(s Status) id.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCode[s].ID
}

// FromID resolves a reference id to a Status.
func (r *Registry) FromID(refID id.ID) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[refID]
	if !ok {
		return "", apperror.NewValidation("unknown status id").
			WithDetail("statusId", refID.String())
	}
	return s, nil
}

// References returns the loaded rows in enum order.
func (r *Registry) References() []Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Reference, 0, len(r.byCode))
	for _, s := range All() {
		out = append(out, r.byCode[s])
	}
	return out
}

// Reload re-reads the reference table. The registry keeps its old rows when
// the new ones are incomplete.
func (r *Registry) Reload(ctx context.Context, src Source) error {
	next, err := Load(ctx, src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.byCode, r.byID = next.byCode, next.byID
	r.mu.Unlock()
	return nil
}
