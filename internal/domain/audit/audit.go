// Package audit records who changed what on documents and catalogs.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
)

// Action is the audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one audit record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    json.RawMessage
	CreatedAt  time.Time
}

// Recorder stores audit entries. Record joins the transaction carried by ctx.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// NewEntry builds an entry for the current user with changes marshaled to JSON.
func NewEntry(ctx context.Context, entityType string, entityID id.ID, action Action, changes any) (Entry, error) {
	raw, err := json.Marshal(changes)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Changes:    raw,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the user in ctx.
// If no user is present, this is a no-op.
func EnrichCreatedBy(ctx context.Context, createdBy, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	*createdBy = userID
	*updatedBy = userID
}

// EnrichUpdatedBy sets only UpdatedBy.
func EnrichUpdatedBy(ctx context.Context, updatedBy *string) {
	if userID := appctx.GetUserID(ctx); userID != "" {
		*updatedBy = userID
	}
}

// MemoryRecorder keeps entries in memory. Used by tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	Entries []Entry
}

func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

var _ Recorder = (*MemoryRecorder)(nil)
