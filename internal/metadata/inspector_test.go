package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/documents/item_receipt"
)

func fieldByName(fields []FieldDef, name string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func TestInspect_Document(t *testing.T) {
	def := Inspect(item_receipt.ItemReceipt{}, "itemReceipt", TypeDocument)

	assert.Equal(t, "Item Receipt", def.Label)

	vendor, ok := fieldByName(def.Fields, "vendorId")
	require.True(t, ok)
	assert.Equal(t, TypeReference, vendor.Type)
	assert.Equal(t, "vendor", vendor.ReferenceType)

	order, ok := fieldByName(def.Fields, "purchaseOrderId")
	require.True(t, ok)
	assert.Equal(t, "purchaseOrder", order.ReferenceType)

	st, ok := fieldByName(def.Fields, "status")
	require.True(t, ok)
	assert.Equal(t, TypeEnum, st.Type)
	assert.True(t, st.ReadOnly)
	assert.NotEmpty(t, st.Options)

	total, ok := fieldByName(def.Fields, "totalGross")
	require.True(t, ok)
	assert.Equal(t, TypeMoney, total.Type)
	assert.True(t, total.ReadOnly)

	require.Len(t, def.TableParts, 1)
	lines := def.TableParts[0]
	assert.Equal(t, "lines", lines.Name)

	item, ok := fieldByName(lines.Columns, "itemId")
	require.True(t, ok)
	assert.Equal(t, "product", item.ReferenceType)

	qty, ok := fieldByName(lines.Columns, "quantity")
	require.True(t, ok)
	assert.Equal(t, TypeNumber, qty.Type)
	assert.Equal(t, 4, qty.Scale)

	rate, ok := fieldByName(lines.Columns, "rate")
	require.True(t, ok)
	assert.Equal(t, 4, rate.Scale)

	_, ok = fieldByName(lines.Columns, "tempId")
	assert.False(t, ok)

	billed, ok := fieldByName(lines.Columns, "quantityBilled")
	require.True(t, ok)
	assert.True(t, billed.ReadOnly)
}

func TestInspect_CatalogEnum(t *testing.T) {
	def := Inspect(&product.Product{}, "product", TypeCatalog)
	def.SetEnum("type", string(product.TypeInventory), string(product.TypeService))

	typ, ok := fieldByName(def.Fields, "type")
	require.True(t, ok)
	assert.Equal(t, TypeEnum, typ.Type)
	assert.Equal(t, []string{"inventory", "service"}, typ.Options)

	cost, ok := fieldByName(def.Fields, "averageCost")
	require.True(t, ok)
	assert.True(t, cost.ReadOnly)
	assert.Empty(t, def.TableParts)
}

func TestGuessLabel(t *testing.T) {
	tests := map[string]string{
		"vendorBill":          "Vendor Bill",
		"PurchaseOrderLineID": "Purchase Order Line ID",
		"COGS":                "COGS",
		"ItemID":              "Item ID",
	}
	for in, want := range tests {
		assert.Equal(t, want, guessLabel(in), in)
	}
}

type sampleRequest struct {
	Name string `json:"name"`
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(EntityDef{Name: "vendor", Label: "Vendor", Type: TypeCatalog}, sampleRequest{})
	reg.Register(EntityDef{Name: "itemReceipt", Type: TypeDocument}, nil)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "vendor", list[0].Name)
	assert.Equal(t, "itemReceipt", list[1].Name)

	schema, ok := reg.Schema("vendor")
	require.True(t, ok)
	assert.Equal(t, "Vendor", schema.Title)
	_, hasName := schema.Properties.Get("name")
	assert.True(t, hasName)

	_, ok = reg.Schema("itemReceipt")
	assert.False(t, ok)
	_, ok = reg.Get("missing")
	assert.False(t, ok)
}
