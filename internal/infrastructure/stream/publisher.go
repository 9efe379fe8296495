// Package stream delivers outbox messages to a Redis stream.
package stream

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stockbook/internal/infrastructure/storage/postgres"
)

// Adder is the part of a Redis client the publisher uses.
type Adder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher implements postgres.OutboxHandler with XADD.
type Publisher struct {
	client Adder
	stream string
	maxLen int64
}

var _ postgres.OutboxHandler = (*Publisher)(nil)

// NewPublisher creates a publisher writing to stream. The stream is trimmed
// to about maxLen entries; zero keeps everything.
func NewPublisher(client Adder, stream string, maxLen int64) *Publisher {
	return &Publisher{client: client, stream: stream, maxLen: maxLen}
}

// Handle appends msg to the stream. The outbox id is the field consumers
// deduplicate on.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":             msg.ID.String(),
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID.String(),
			"payload":        string(msg.Payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
