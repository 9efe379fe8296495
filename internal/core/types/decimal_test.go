package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{`10`, NewQuantity(10)},
		{`"2.5"`, MustQuantity("2.5")},
		{`-0.0001`, Quantity(-1)},
		{`null`, 0},
		{`""`, 0},
		{`1.23450`, Quantity(12345)},
		{`"+3"`, NewQuantity(3)},
		{`1.5e2`, NewQuantity(150)},
		{`922337203685477.5807`, Quantity(math.MaxInt64)},
		{`-922337203685477.5807`, Quantity(-math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantity_UnmarshalJSONRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"double sign", `"--5"`},
		{"sign after point", `"1.-5"`},
		{"letters", `"12abc"`},
		{"two points", `"1.2.3"`},
		{"too many decimals", `"0.00009"`},
		{"too many decimals as number", `1.23456`},
		{"beyond int64 after scaling", `1844674407370960`},
		{"beyond int64 below max units", `922337203685477.9999`},
		{"huge exponent", `1e30`},
		{"huge negative", `"-1e30"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			assert.Error(t, json.Unmarshal([]byte(tt.in), &q))
			assert.Zero(t, q)
		})
	}
}

func TestParseQuantity_Errors(t *testing.T) {
	_, err := ParseQuantity("--5")
	require.Error(t, err)

	q, err := ParseQuantity("  ")
	require.NoError(t, err)
	assert.Zero(t, q)
}

func TestQuantity_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Q Quantity `json:"q"`
	}{Q: MustQuantity("-12.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q": -12.5}`, string(b))
}

func TestQuantity_Decimal(t *testing.T) {
	q := MustQuantity("6.25")
	assert.True(t, q.Decimal().Equal(decimal.RequireFromString("6.25")))
	assert.Equal(t, q, NewQuantityFromDecimal(q.Decimal()))
	assert.Equal(t, Quantity(3334), NewQuantityFromDecimal(decimal.RequireFromString("0.33335")))
}

func TestQuantity_Clamp(t *testing.T) {
	hi := NewQuantity(100)
	assert.Equal(t, Quantity(0), NewQuantity(-5).Clamp(0, hi))
	assert.Equal(t, hi, NewQuantity(140).Clamp(0, hi))
	assert.Equal(t, NewQuantity(40), NewQuantity(40).Clamp(0, hi))
}

func TestMoneyFromString_Blank(t *testing.T) {
	m, err := NewMoneyFromString("  ")
	require.NoError(t, err)
	assert.True(t, m.IsZero())
	assert.True(t, MoneyOrZero(nil).IsZero())
}
