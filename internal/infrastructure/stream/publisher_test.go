package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/infrastructure/storage/postgres"
)

type recordingAdder struct {
	calls []*redis.XAddArgs
	err   error
}

func (r *recordingAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	r.calls = append(r.calls, a)
	cmd := redis.NewStringCmd(ctx)
	if r.err != nil {
		cmd.SetErr(r.err)
	} else {
		cmd.SetVal("1-0")
	}
	return cmd
}

func TestPublisher_Handle(t *testing.T) {
	adder := &recordingAdder{}
	pub := NewPublisher(adder, "stockbook.events", 10000)

	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "item_receipt",
		AggregateID:   id.New(),
		EventType:     "item_receipt.saved",
		Payload:       []byte(`{"number":"IR-1"}`),
	}
	require.NoError(t, pub.Handle(context.Background(), msg))

	require.Len(t, adder.calls, 1)
	args := adder.calls[0]
	assert.Equal(t, "stockbook.events", args.Stream)
	assert.Equal(t, int64(10000), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, msg.ID.String(), values["id"])
	assert.Equal(t, "item_receipt.saved", values["event_type"])
	assert.Equal(t, `{"number":"IR-1"}`, values["payload"])
}

func TestPublisher_HandleError(t *testing.T) {
	adder := &recordingAdder{err: errors.New("connection refused")}
	pub := NewPublisher(adder, "events", 0)

	err := pub.Handle(context.Background(), &postgres.OutboxMessage{ID: id.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd events")
	assert.Zero(t, adder.calls[0].MaxLen)
}
