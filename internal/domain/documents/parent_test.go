package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/reconcile"
	"stockbook/internal/domain/status"
)

type orderDoc struct {
	Header
}

func (d *orderDoc) Validate(ctx context.Context) error { return d.ValidateHeader(ctx) }

func (d *orderDoc) Clone() *orderDoc {
	c := *d
	return &c
}

type orderLine struct {
	Line
	Received types.Quantity
}

func orderLineOf(l *orderLine) *Line { return &l.Line }

func received(l *orderLine) *types.Quantity { return &l.Received }

func seedOrder(t *testing.T, store *MemoryStore[*orderDoc, orderLine], ordered ...int64) (*orderDoc, []id.ID) {
	t.Helper()
	ctx := context.Background()
	doc := &orderDoc{Header: NewHeader()}
	require.NoError(t, store.Create(ctx, doc))

	lines := make([]orderLine, len(ordered))
	ids := make([]id.ID, len(ordered))
	for i, q := range ordered {
		ids[i] = id.New()
		lines[i] = orderLine{Line: Line{LineID: ids[i], LineNo: i + 1, ItemID: id.New(), Quantity: types.NewQuantity(q)}}
	}
	require.NoError(t, store.SaveLines(ctx, doc.ID, LineChanges[orderLine]{Insert: lines}))
	return doc, ids
}

func statusOf(t *testing.T, store *MemoryStore[*orderDoc, orderLine], docID id.ID) status.Status {
	t.Helper()
	doc, err := store.GetByID(context.Background(), docID)
	require.NoError(t, err)
	return doc.Status
}

// A purchase order line of 100 is received by two receipts; deleting the first
// brings the counter back to what the second still receives.
func TestReconcileParents_TwoReceiptsThenDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[*orderDoc, orderLine]("order", orderLineOf)
	counter := store.Counter(received, true)
	order, lines := seedOrder(t, store, 100)
	poLine := lines[0]

	receiptA := []reconcile.LineRef{{Key: "a1", ParentLineID: &poLine, Quantity: types.NewQuantity(60)}}
	receiptB := []reconcile.LineRef{{Key: "b1", ParentLineID: &poLine, Quantity: types.NewQuantity(40)}}

	res, err := ReconcileParents(ctx, counter, reconcile.ParentDeltas(nil, receiptA), &order.ID)
	require.NoError(t, err)
	assert.Empty(t, res.StatusChanges)
	assert.Equal(t, status.Open, statusOf(t, store, order.ID))

	res, err = ReconcileParents(ctx, counter, reconcile.ParentDeltas(nil, receiptB), &order.ID)
	require.NoError(t, err)
	assert.Equal(t, map[id.ID]status.Status{order.ID: status.Closed}, res.StatusChanges)
	assert.Equal(t, status.Closed, statusOf(t, store, order.ID))

	res, err = ReconcileParents(ctx, counter, reconcile.ParentDeltas(receiptA, nil), &order.ID)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{order.ID}, res.ChangedParents())
	assert.Equal(t, status.Open, statusOf(t, store, order.ID))

	rows, err := counter.ParentLinesOf(ctx, []id.ID{order.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, types.NewQuantity(40), rows[0].Consumed)
}

func TestReconcileParents_Clamps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[*orderDoc, orderLine]("order", orderLineOf)
	counter := store.Counter(received, true)
	order, lines := seedOrder(t, store, 10)

	res, err := ReconcileParents(ctx, counter, map[id.ID]types.Quantity{lines[0]: types.NewQuantity(25)}, nil)
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 1)
	assert.True(t, res.Adjustments[0].Clamped)
	assert.Equal(t, types.NewQuantity(10), res.Adjustments[0].After)
	assert.Equal(t, status.Closed, statusOf(t, store, order.ID))

	_, err = ReconcileParents(ctx, counter, map[id.ID]types.Quantity{lines[0]: types.NewQuantity(-40)}, nil)
	require.NoError(t, err)
	rows, err := counter.LockParentLines(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rows[0].Consumed)
}

func TestReconcileParents_WrongParentDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[*orderDoc, orderLine]("order", orderLineOf)
	counter := store.Counter(received, true)
	_, lines := seedOrder(t, store, 10)
	other, _ := seedOrder(t, store, 5)

	_, err := ReconcileParents(ctx, counter, map[id.ID]types.Quantity{lines[0]: types.NewQuantity(1)}, &other.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestReconcileParents_UnknownLine(t *testing.T) {
	store := NewMemoryStore[*orderDoc, orderLine]("order", orderLineOf)
	_, err := ReconcileParents(context.Background(), store.Counter(received, true),
		map[id.ID]types.Quantity{id.New(): types.NewQuantity(1)}, nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReconcileParents_CounterWithoutStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[*orderDoc, orderLine]("order", orderLineOf)
	order, lines := seedOrder(t, store, 5)

	res, err := ReconcileParents(ctx, store.Counter(received, false), map[id.ID]types.Quantity{lines[0]: types.NewQuantity(5)}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.StatusChanges)
	assert.Equal(t, status.Open, statusOf(t, store, order.ID))
}
