package vendor_bill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/status"
)

type env struct {
	f        *doctest.Fixture
	orders   *purchase_order.MemoryRepository
	poSvc    *purchase_order.Service
	receipts *item_receipt.MemoryRepository
	irSvc    *item_receipt.Service
	repo     *MemoryRepository
	svc      *Service
	vendor   id.ID
	location id.ID
}

func newEnv() *env {
	f := doctest.New()
	orders := purchase_order.NewMemoryRepository()
	receipts := item_receipt.NewMemoryRepository()
	repo := NewMemoryRepository()
	return &env{
		f:        f,
		orders:   orders,
		poSvc:    purchase_order.NewService(orders, f.Deps),
		receipts: receipts,
		irSvc:    item_receipt.NewService(receipts, orders, f.Deps),
		repo:     repo,
		svc:      NewService(repo, receipts, orders, f.Deps),
		vendor:   id.New(),
		location: id.New(),
	}
}

// received creates an order for 100 units and receives units of it.
func (e *env) received(t *testing.T, units int64) (*purchase_order.PurchaseOrder, *item_receipt.ItemReceipt) {
	t.Helper()
	ctx := context.Background()
	item := e.f.Item("0")

	po := purchase_order.NewPurchaseOrder(e.vendor, e.location)
	po.Date = doctest.Date
	po.Lines = []purchase_order.Line{{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(100), Rate: doctest.Dec("5")}}}
	require.NoError(t, e.poSvc.Create(ctx, po))

	r := item_receipt.NewItemReceipt(e.vendor, e.location)
	r.Date = doctest.Date
	r.PurchaseOrderID = &po.ID
	poLine := po.Lines[0].LineID
	r.Lines = []item_receipt.Line{{
		Line:                documents.Line{ItemID: item, Quantity: doctest.Qty(units), Rate: doctest.Dec("5")},
		PurchaseOrderLineID: &poLine,
	}}
	require.NoError(t, e.irSvc.Create(ctx, r))
	return po, r
}

func (e *env) bill(r *item_receipt.ItemReceipt, units int64) *VendorBill {
	b := NewVendorBill(e.vendor)
	b.Date = doctest.Date
	b.ItemReceiptID = &r.ID
	irLine := r.Lines[0].LineID
	b.Lines = []Line{{
		Line:              documents.Line{ItemID: r.Lines[0].ItemID, Quantity: doctest.Qty(units), Rate: doctest.Dec("5"), TaxRate: doctest.Dec("20")},
		ItemReceiptLineID: &irLine,
	}}
	return b
}

func (e *env) billedOnReceipt(t *testing.T, r *item_receipt.ItemReceipt) (types.Quantity, status.Status) {
	t.Helper()
	got, err := e.irSvc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	return got.Lines[0].QuantityBilled, got.Status
}

func (e *env) billedOnOrder(t *testing.T, po *purchase_order.PurchaseOrder) types.Quantity {
	t.Helper()
	got, err := e.poSvc.Get(context.Background(), po.ID)
	require.NoError(t, err)
	return got.Lines[0].QuantityBilled
}

func TestService_BillClosesReceiptAndRollsUpToOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	po, r := e.received(t, 60)

	first := e.bill(r, 40)
	require.NoError(t, e.svc.Create(ctx, first))
	billed, st := e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(40), billed)
	assert.Equal(t, status.Open, st)
	assert.Equal(t, doctest.Qty(40), e.billedOnOrder(t, po))

	second := e.bill(r, 20)
	require.NoError(t, e.svc.Create(ctx, second))
	billed, st = e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(60), billed)
	assert.Equal(t, status.Closed, st)
	assert.Equal(t, doctest.Qty(60), e.billedOnOrder(t, po))

	require.NoError(t, e.svc.Delete(ctx, first.ID))
	billed, st = e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(20), billed)
	assert.Equal(t, status.Open, st)
	assert.Equal(t, doctest.Qty(20), e.billedOnOrder(t, po))
}

func TestService_OverBillingClampsRollup(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	po, r := e.received(t, 10)

	b := e.bill(r, 15)
	require.NoError(t, e.svc.Create(ctx, b))

	billed, st := e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(10), billed)
	assert.Equal(t, status.Closed, st)
	assert.Equal(t, doctest.Qty(10), e.billedOnOrder(t, po), "order sees only what the receipt applied")
}

func TestService_JournalBalances(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	_, r := e.received(t, 10)

	b := e.bill(r, 10)
	freight := e.f.Service()
	b.Lines = append(b.Lines, Line{Line: documents.Line{ItemID: freight, Quantity: doctest.Qty(1), Rate: doctest.Dec("12")}})
	require.NoError(t, e.svc.Create(ctx, b))

	assert.Equal(t, "VB-2026-00001", b.Number)
	assert.True(t, doctest.Dec("62").Equal(b.TotalNet))
	assert.True(t, doctest.Dec("10").Equal(b.TotalTax))

	entries := e.f.Entries(journal.SourceVendorBill, b.ID)
	require.Len(t, entries, 1)
	assert.True(t, doctest.Dec("50").Equal(doctest.Balance(entries, journal.AccountGRNI)))
	assert.True(t, doctest.Dec("12").Equal(doctest.Balance(entries, journal.AccountExpense)))
	assert.True(t, doctest.Dec("10").Equal(doctest.Balance(entries, journal.AccountInputTax)))
	assert.True(t, doctest.Dec("-72").Equal(doctest.Balance(entries, journal.AccountPayable)))

	require.NoError(t, e.svc.Delete(ctx, b.ID))
	assert.Empty(t, e.f.Entries(journal.SourceVendorBill, b.ID))
}

func TestService_DueDateDefaultsToTerms(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	_, r := e.received(t, 10)

	b := e.bill(r, 10)
	require.NoError(t, e.svc.Create(ctx, b))
	assert.Equal(t, doctest.Date.AddDate(0, 0, DefaultTermsDays), b.DueDate)

	early := e.bill(r, 1)
	early.DueDate = doctest.Date.Add(-24 * time.Hour)
	err := e.svc.Create(ctx, early)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_VendorMustMatchReceipt(t *testing.T) {
	e := newEnv()
	_, r := e.received(t, 10)

	b := e.bill(r, 10)
	b.VendorID = id.New()
	err := e.svc.Create(context.Background(), b)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Zero(t, e.repo.Len())
}

func TestService_UpdateMovesCounters(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	po, r := e.received(t, 60)

	b := e.bill(r, 20)
	require.NoError(t, e.svc.Create(ctx, b))

	edit, err := e.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(50)
	require.NoError(t, e.svc.Update(ctx, edit))

	billed, _ := e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(50), billed)
	assert.Equal(t, doctest.Qty(50), e.billedOnOrder(t, po))

	other := id.New()
	edit.ItemReceiptID = &other
	err = e.svc.Update(ctx, edit)
	assert.Error(t, err)
}

func TestService_CreditedLinesAreProtected(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	_, r := e.received(t, 60)
	b := e.bill(r, 60)
	require.NoError(t, e.svc.Create(ctx, b))
	require.NoError(t, e.repo.Credited().SetConsumed(ctx, map[id.ID]types.Quantity{b.Lines[0].LineID: doctest.Qty(30)}))

	edit, err := e.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(20)
	err = e.svc.Update(ctx, edit)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))

	err = e.svc.Delete(ctx, b.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityConsumed))

	billed, _ := e.billedOnReceipt(t, r)
	assert.Equal(t, doctest.Qty(60), billed)
}
