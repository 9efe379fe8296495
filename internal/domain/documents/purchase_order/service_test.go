package purchase_order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/status"
)

func newOrder(items ...id.ID) *PurchaseOrder {
	po := NewPurchaseOrder(id.New(), id.New())
	po.Date = doctest.Date
	for _, item := range items {
		po.Lines = append(po.Lines, Line{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(10), Rate: doctest.Dec("4"), TaxRate: doctest.Dec("10")}})
	}
	return po
}

func TestService_Create(t *testing.T) {
	f := doctest.New()
	repo := NewMemoryRepository()
	svc := NewService(repo, f.Deps)

	po := newOrder(id.New(), id.New())
	po.Lines[0].QuantityReceived = doctest.Qty(99)
	require.NoError(t, svc.Create(context.Background(), po))

	assert.Equal(t, "PO-2026-00001", po.Number)
	assert.Equal(t, status.Open, po.Status)
	assert.Equal(t, "80", po.TotalNet.String())
	assert.Equal(t, "8", po.TotalTax.String())
	assert.Equal(t, "88", po.TotalGross.String())

	got, err := svc.Get(context.Background(), po.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Zero(t, got.Lines[0].QuantityReceived, "counters are server-owned")
	assert.False(t, id.IsNil(got.Lines[0].LineID))

	assert.Equal(t, []string{events.DocumentCreated}, f.Outbox.Types())
	assert.Len(t, f.Audit.Entries, 1)
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), doctest.New().Deps)

	po := newOrder()
	err := svc.Create(context.Background(), po)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	po = newOrder(id.New())
	po.VendorID = id.ID{}
	err = svc.Create(context.Background(), po)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_UpdateKeepsReceivedLines(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, doctest.New().Deps)

	po := newOrder(id.New(), id.New())
	require.NoError(t, svc.Create(ctx, po))
	received := po.Lines[0].LineID
	require.NoError(t, repo.Received().SetConsumed(ctx, map[id.ID]types.Quantity{received: doctest.Qty(6)}))

	t.Run("cannot drop below received", func(t *testing.T) {
		edit, err := svc.Get(ctx, po.ID)
		require.NoError(t, err)
		edit.Lines[0].Quantity = doctest.Qty(5)
		err = svc.Update(ctx, edit)
		assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))
	})

	t.Run("cannot remove received line", func(t *testing.T) {
		edit, err := svc.Get(ctx, po.ID)
		require.NoError(t, err)
		edit.Lines = edit.Lines[1:]
		err = svc.Update(ctx, edit)
		assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))
	})

	t.Run("trim to received closes the order", func(t *testing.T) {
		edit, err := svc.Get(ctx, po.ID)
		require.NoError(t, err)
		edit.Lines[0].Quantity = doctest.Qty(6)
		edit.Lines[0].QuantityReceived = 0
		edit.Lines = edit.Lines[:1]
		require.NoError(t, svc.Update(ctx, edit))

		got, err := svc.Get(ctx, po.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, doctest.Qty(6), got.Lines[0].QuantityReceived)
		assert.Equal(t, status.Closed, got.Status)
		assert.Equal(t, "24", got.TotalNet.String())
		assert.Equal(t, 2, got.Version)
	})
}

func TestService_UpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), doctest.New().Deps)
	po := newOrder(id.New())
	require.NoError(t, svc.Create(ctx, po))

	edit, err := svc.Get(ctx, po.ID)
	require.NoError(t, err)
	edit.Version = 7
	err = svc.Update(ctx, edit)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := doctest.New()
	repo := NewMemoryRepository()
	svc := NewService(repo, f.Deps)

	open := newOrder(id.New())
	require.NoError(t, svc.Create(ctx, open))
	started := newOrder(id.New())
	require.NoError(t, svc.Create(ctx, started))
	require.NoError(t, repo.Received().SetConsumed(ctx, map[id.ID]types.Quantity{started.Lines[0].LineID: doctest.Qty(1)}))

	err := svc.BulkDelete(ctx, []id.ID{open.ID, started.ID})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeQuantityConsumed, appErr.Code)
	assert.Equal(t, started.ID.String(), appErr.Details["document_id"])

	fresh := newOrder(id.New())
	require.NoError(t, svc.Create(ctx, fresh))
	require.NoError(t, svc.Delete(ctx, fresh.ID))
	_, err = svc.Get(ctx, fresh.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, events.DocumentDeleted, f.Outbox.Types()[len(f.Outbox.Types())-1])
}

func TestService_ReceiptDraft(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, doctest.New().Deps)

	po := newOrder(id.New(), id.New())
	require.NoError(t, svc.Create(ctx, po))
	require.NoError(t, repo.Received().SetConsumed(ctx, map[id.ID]types.Quantity{
		po.Lines[0].LineID: doctest.Qty(10),
		po.Lines[1].LineID: doctest.Qty(4),
	}))

	draft, err := svc.ReceiptDraft(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.LocationID, draft.LocationID)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, po.Lines[1].LineID, draft.Lines[0].PurchaseOrderLineID)
	assert.Equal(t, doctest.Qty(6), draft.Lines[0].Quantity)
	assert.True(t, doctest.Dec("4").Equal(draft.Lines[0].Rate))

	require.NoError(t, repo.Received().SetConsumed(ctx, map[id.ID]types.Quantity{po.Lines[1].LineID: doctest.Qty(10)}))
	_, err = svc.ReceiptDraft(ctx, po.ID)
	assert.True(t, apperror.HasCode(err, "purchase_order.fully_received"))
}
