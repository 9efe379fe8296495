// Package events defines the domain events written to the transactional outbox.
package events

import (
	"context"
	"sync"

	"stockbook/internal/core/id"
)

// Event types.
const (
	DocumentCreated = "document.created"
	DocumentUpdated = "document.updated"
	DocumentDeleted = "document.deleted"
	// StatusChanged is emitted when a parent document flips between open and closed.
	StatusChanged = "document.status_changed"
	// AverageCostChanged is emitted per product whose average moved.
	AverageCostChanged = "product.average_cost_changed"
)

// Event is one domain event.
type Event struct {
	AggregateType string `json:"aggregateType"`
	AggregateID   id.ID  `json:"aggregateId"`
	Type          string `json:"type"`
	Payload       any    `json:"payload,omitempty"`
}

// Publisher stores events for asynchronous delivery. Publish joins the
// transaction carried by ctx.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Recorder is an in-memory Publisher for unit tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	// Fail makes Publish return this error.
	Fail error
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	if r.Fail != nil {
		return r.Fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of what was published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var _ Publisher = (*Recorder)(nil)
