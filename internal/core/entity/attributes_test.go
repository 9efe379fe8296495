package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes_ScanPreservesPrecision(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Scan([]byte(`{"landedCost": 12.3456789012345678, "note": "dock 4"}`)))

	assert.IsType(t, json.Number(""), a["landedCost"])
	assert.True(t, a.GetDecimal("landedCost").Equal(decimal.RequireFromString("12.3456789012345678")))
	assert.Equal(t, "dock 4", a.GetString("note"))
}

func TestAttributes_ScanNil(t *testing.T) {
	a := Attributes{"x": 1}
	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)
}

func TestAttributes_Merge(t *testing.T) {
	base := Attributes{"carrier": "DHL", "dock": "4"}
	merged := base.Merge(Attributes{"dock": nil, "seal": "A-17"})

	assert.Equal(t, Attributes{"carrier": "DHL", "seal": "A-17"}, merged)
	assert.Equal(t, "4", base.GetString("dock"), "receiver must not be mutated")
}

func TestAttributes_GetDecimalBlank(t *testing.T) {
	a := Attributes{"freight": ""}
	assert.True(t, a.GetDecimal("freight").IsZero())
	assert.True(t, a.GetDecimal("missing").IsZero())
}
