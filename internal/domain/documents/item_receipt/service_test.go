package item_receipt

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
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/status"
)

type env struct {
	f        *doctest.Fixture
	orders   *purchase_order.MemoryRepository
	poSvc    *purchase_order.Service
	repo     *MemoryRepository
	svc      *Service
	vendor   id.ID
	location id.ID
}

func newEnv() *env {
	f := doctest.New()
	orders := purchase_order.NewMemoryRepository()
	repo := NewMemoryRepository()
	return &env{
		f:        f,
		orders:   orders,
		poSvc:    purchase_order.NewService(orders, f.Deps),
		repo:     repo,
		svc:      NewService(repo, orders, f.Deps),
		vendor:   id.New(),
		location: id.New(),
	}
}

func (e *env) order(t *testing.T, item id.ID, ordered int64) *purchase_order.PurchaseOrder {
	t.Helper()
	po := purchase_order.NewPurchaseOrder(e.vendor, e.location)
	po.Date = doctest.Date
	po.Lines = []purchase_order.Line{{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(ordered), Rate: doctest.Dec("5")}}}
	require.NoError(t, e.poSvc.Create(context.Background(), po))
	return po
}

func (e *env) receipt(po *purchase_order.PurchaseOrder, received int64, rate string) *ItemReceipt {
	r := NewItemReceipt(e.vendor, e.location)
	r.Date = doctest.Date
	r.PurchaseOrderID = &po.ID
	poLine := po.Lines[0].LineID
	r.Lines = []Line{{
		Line:                documents.Line{ItemID: po.Lines[0].ItemID, Quantity: doctest.Qty(received), Rate: doctest.Dec(rate)},
		PurchaseOrderLineID: &poLine,
	}}
	return r
}

func (e *env) orderState(t *testing.T, po *purchase_order.PurchaseOrder) (types.Quantity, status.Status) {
	t.Helper()
	got, err := e.poSvc.Get(context.Background(), po.ID)
	require.NoError(t, err)
	return got.Lines[0].QuantityReceived, got.Status
}

func TestService_TwoReceiptsCloseOrderAndDeleteReopens(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")
	po := e.order(t, item, 100)

	a := e.receipt(po, 60, "5")
	require.NoError(t, e.svc.Create(ctx, a))
	received, st := e.orderState(t, po)
	assert.Equal(t, doctest.Qty(60), received)
	assert.Equal(t, status.Open, st)

	b := e.receipt(po, 40, "5")
	require.NoError(t, e.svc.Create(ctx, b))
	received, st = e.orderState(t, po)
	assert.Equal(t, doctest.Qty(100), received)
	assert.Equal(t, status.Closed, st)
	assert.Contains(t, e.f.Outbox.Types(), events.StatusChanged)

	require.NoError(t, e.svc.Delete(ctx, a.ID))
	received, st = e.orderState(t, po)
	assert.Equal(t, doctest.Qty(40), received)
	assert.Equal(t, status.Open, st)

	assert.Equal(t, doctest.Qty(40), e.f.Quantity(item, e.location))
	assert.Empty(t, e.f.Entries(journal.SourceItemReceipt, a.ID))
}

func TestService_CreateValuesAndPosts(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("5")
	e.f.OnHand(item, id.New(), 10)
	po := e.order(t, item, 10)

	r := e.receipt(po, 10, "9")
	require.NoError(t, e.svc.Create(ctx, r))

	assert.Equal(t, "IR-2026-00001", r.Number)
	assert.True(t, doctest.Dec("7").Equal(e.f.AverageCost(item)), "blended %s", e.f.AverageCost(item))
	assert.Equal(t, doctest.Qty(10), e.f.Quantity(item, e.location))

	entries := e.f.Entries(journal.SourceItemReceipt, r.ID)
	require.Len(t, entries, 1)
	assert.True(t, doctest.Dec("90").Equal(doctest.Balance(entries, journal.AccountInventory)))
	assert.True(t, doctest.Dec("-90").Equal(doctest.Balance(entries, journal.AccountGRNI)))
}

func TestService_ServiceItemsPostToExpense(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	labour := e.f.Service()

	r := NewItemReceipt(e.vendor, e.location)
	r.Date = doctest.Date
	r.Lines = []Line{{Line: documents.Line{ItemID: labour, Quantity: doctest.Qty(2), Rate: doctest.Dec("30")}}}
	require.NoError(t, e.svc.Create(ctx, r))

	entries := e.f.Entries(journal.SourceItemReceipt, r.ID)
	assert.True(t, doctest.Dec("60").Equal(doctest.Balance(entries, journal.AccountExpense)))
	assert.True(t, doctest.Balance(entries, journal.AccountInventory).IsZero())
	assert.True(t, e.f.Quantity(labour, e.location).IsZero())
}

func TestService_UpdateAppliesDeltas(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")
	po := e.order(t, item, 100)

	r := e.receipt(po, 60, "5")
	require.NoError(t, e.svc.Create(ctx, r))

	edit, err := e.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(70)
	require.NoError(t, e.svc.Update(ctx, edit))

	received, _ := e.orderState(t, po)
	assert.Equal(t, doctest.Qty(70), received)
	assert.Equal(t, doctest.Qty(70), e.f.Quantity(item, e.location))
	assert.True(t, doctest.Dec("5").Equal(e.f.AverageCost(item)))

	entries := e.f.Entries(journal.SourceItemReceipt, r.ID)
	require.Len(t, entries, 1, "journal is recreated, not appended")
	assert.True(t, doctest.Dec("350").Equal(doctest.Balance(entries, journal.AccountInventory)))
}

func TestService_UpdateRateRevalues(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")

	r := NewItemReceipt(e.vendor, e.location)
	r.Date = doctest.Date
	r.Lines = []Line{{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(10), Rate: doctest.Dec("5")}}}
	require.NoError(t, e.svc.Create(ctx, r))

	edit, err := e.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	edit.Lines[0].Rate = doctest.Dec("6")
	require.NoError(t, e.svc.Update(ctx, edit))

	assert.Equal(t, doctest.Qty(10), e.f.Quantity(item, e.location))
	assert.True(t, doctest.Dec("6").Equal(e.f.AverageCost(item)), "avg %s", e.f.AverageCost(item))
}

func TestService_BilledLinesAreProtected(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")
	po := e.order(t, item, 100)
	r := e.receipt(po, 60, "5")
	require.NoError(t, e.svc.Create(ctx, r))
	require.NoError(t, e.repo.Billed().SetConsumed(ctx, map[id.ID]types.Quantity{r.Lines[0].LineID: doctest.Qty(20)}))

	edit, err := e.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(10)
	err = e.svc.Update(ctx, edit)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))

	err = e.svc.Delete(ctx, r.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))

	received, _ := e.orderState(t, po)
	assert.Equal(t, doctest.Qty(60), received)
}

func TestService_OrderMismatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")
	po := e.order(t, item, 10)

	r := e.receipt(po, 5, "5")
	r.VendorID = id.New()
	assert.True(t, apperror.HasCode(e.svc.Create(ctx, r), apperror.CodeValidation))

	other := e.order(t, item, 10)
	r = e.receipt(po, 5, "5")
	r.PurchaseOrderID = &other.ID
	assert.True(t, apperror.HasCode(e.svc.Create(ctx, r), apperror.CodeValidation),
		"line of one order received against another")
}

func TestService_OverReceiptClamps(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	item := e.f.Item("0")
	po := e.order(t, item, 10)

	require.NoError(t, e.svc.Create(ctx, e.receipt(po, 15, "5")))
	received, st := e.orderState(t, po)
	assert.Equal(t, doctest.Qty(10), received)
	assert.Equal(t, status.Closed, st)
	assert.Equal(t, doctest.Qty(15), e.f.Quantity(item, e.location))
}
