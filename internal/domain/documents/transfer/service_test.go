package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/rules"
)

type env struct {
	f        *doctest.Fixture
	svc      *Service
	from, to id.ID
}

func newEnv() *env {
	f := doctest.New()
	return &env{f: f, svc: NewService(NewMemoryRepository(), f.Deps), from: id.New(), to: id.New()}
}

func (e *env) transfer(item id.ID, units ...int64) *InventoryTransfer {
	t := NewInventoryTransfer(e.from, e.to)
	t.Date = doctest.Date
	for _, u := range units {
		t.Lines = append(t.Lines, Line{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(u)}})
	}
	return t
}

func TestService_MovesWithoutCostOrJournal(t *testing.T) {
	e := newEnv()
	item := e.f.Item("5")
	e.f.OnHand(item, e.from, 10)

	tr := e.transfer(item, 4)
	require.NoError(t, e.svc.Create(context.Background(), tr))

	assert.Equal(t, "IT-2026-00001", tr.Number)
	assert.Equal(t, doctest.Qty(6), e.f.Quantity(item, e.from))
	assert.Equal(t, doctest.Qty(4), e.f.Quantity(item, e.to))
	assert.True(t, doctest.Dec("5").Equal(e.f.AverageCost(item)))
	assert.Zero(t, e.f.Journals.Len())
	assert.Contains(t, e.f.Outbox.Types(), events.DocumentCreated)
}

func TestService_ExceedingSourceOnHandIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		units []int64
	}{
		{"single line", []int64{11}},
		{"lines add up", []int64{6, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			item := e.f.Item("5")
			e.f.OnHand(item, e.from, 10)

			err := e.svc.Create(context.Background(), e.transfer(item, tt.units...))
			assert.True(t, apperror.HasCode(err, rules.CodeWithinOnHand), "%v", err)
			assert.Equal(t, doctest.Qty(10), e.f.Quantity(item, e.from))
			assert.True(t, e.f.Quantity(item, e.to).IsZero())
		})
	}
}

func TestService_SameLocationIsRejected(t *testing.T) {
	e := newEnv()
	item := e.f.Item("5")
	tr := e.transfer(item, 1)
	tr.ToLocationID = tr.FromLocationID

	err := e.svc.Create(context.Background(), tr)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_UpdateAndDeleteMoveBack(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("5")
	e.f.OnHand(item, e.from, 10)

	tr := e.transfer(item, 4)
	require.NoError(t, e.svc.Create(ctx, tr))

	edit, err := e.svc.Get(ctx, tr.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(10)
	require.NoError(t, e.svc.Update(ctx, edit))
	assert.True(t, e.f.Quantity(item, e.from).IsZero())
	assert.Equal(t, doctest.Qty(10), e.f.Quantity(item, e.to))

	require.NoError(t, e.svc.Delete(ctx, tr.ID))
	assert.Equal(t, doctest.Qty(10), e.f.Quantity(item, e.from))
	assert.True(t, e.f.Quantity(item, e.to).IsZero())
}
