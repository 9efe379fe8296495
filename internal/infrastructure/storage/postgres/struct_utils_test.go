package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/item_receipt"
)

func TestExtractDBColumns_EmbeddedLine(t *testing.T) {
	cols := ExtractDBColumns[item_receipt.Line]()

	assert.Equal(t, []string{
		"line_id", "line_no", "item_id", "quantity", "rate", "tax_rate",
		"net", "tax", "gross", "memo", "purchase_order_line_id", "quantity_billed",
	}, cols)
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumns_HeaderSkipsLines(t *testing.T) {
	cols := ExtractDBColumns[item_receipt.ItemReceipt]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "version")
	assert.Contains(t, cols, "total_gross")
	assert.Contains(t, cols, "purchase_order_id")
	assert.NotContains(t, cols, "lines")
}

func TestStructToMap_PointerAndEmbedded(t *testing.T) {
	poLine := id.New()
	l := item_receipt.Line{
		Line: documents.Line{
			LineID:   id.New(),
			ItemID:   id.New(),
			Quantity: types.NewQuantity(3),
			Rate:     decimal.RequireFromString("4.50"),
		},
		PurchaseOrderLineID: &poLine,
	}

	m := StructToMap(&l)

	assert.Equal(t, l.LineID, m["line_id"])
	assert.Equal(t, types.NewQuantity(3), m["quantity"])
	assert.Equal(t, &poLine, m["purchase_order_line_id"])
	assert.NotContains(t, m, "tempId")
}

func TestRowValuesAndWithout(t *testing.T) {
	l := documents.Line{LineID: id.New(), LineNo: 2, Memo: "x"}
	cols := Without([]string{"document_id", "line_id", "line_no", "memo"}, "line_no")

	assert.Equal(t, []string{"document_id", "line_id", "memo"}, cols)
	assert.Equal(t, []any{nil, l.LineID, "x"}, RowValues(l, cols))
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	var p *documents.Line
	assert.Nil(t, StructToMap(p))
}

func TestRowValues_DecimalsBecomeNumeric(t *testing.T) {
	l := documents.Line{Rate: decimal.RequireFromString("12.345")}

	row := RowValues(l, []string{"rate"})

	n, ok := row[0].(pgtype.Numeric)
	require.True(t, ok)
	assert.True(t, n.Valid)
	assert.Equal(t, int64(12345), n.Int.Int64())
	assert.Equal(t, int32(-3), n.Exp)
}
