// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// Rates, unit costs, line totals and COGS are all Money.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// Blank input is zero.
func NewMoneyFromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MoneyOrZero dereferences an optional amount, treating nil as zero.
func MoneyOrZero(m *Money) Money {
	if m == nil {
		return decimal.Zero
	}
	return *m
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
//
// Stored as BIGINT (scaled integer) in Postgres; JSON remains a number
// with up to 4 decimals. Quantities are signed and may be fractional.
type Quantity int64

const QuantityScale int64 = 10_000

// QuantityDecimals is the number of fractional digits QuantityScale keeps.
const QuantityDecimals = 4

var quantityScaleDecimal = decimal.NewFromInt(QuantityScale)

// maxQuantity is the largest magnitude a Quantity can hold.
var maxQuantity = decimal.New(math.MaxInt64, -QuantityDecimals)

// NewQuantity creates a whole-unit quantity.
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

// NewQuantityFromDecimal rounds d to 4 fractional digits.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Mul(quantityScaleDecimal).Round(0).IntPart())
}

// ParseQuantity parses a decimal string. Blank input is zero.
func ParseQuantity(s string) (Quantity, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return parseQuantityString(s)
}

// MustQuantity parses s, panics on error. Use only for constants and tests.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

// Decimal returns the exact decimal value of q.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -4)
}

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Clamp bounds q to [lo, hi].
func (q Quantity) Clamp(lo, hi Quantity) Quantity {
	if q < lo {
		return lo
	}
	if q > hi {
		return hi
	}
	return q
}

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a JSON number, a string, null or "" and parses to fixed-point.
// null and blank strings are zero.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	parsed, err := parseQuantityString(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// parseQuantityString accepts plain and exponent notation. Values with more
// than 4 significant fractional digits or beyond the int64 range are errors.
func parseQuantityString(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	if !d.Equal(d.Truncate(QuantityDecimals)) {
		return 0, fmt.Errorf("quantity %s has more than %d decimal places", s, QuantityDecimals)
	}
	if d.Abs().GreaterThan(maxQuantity) {
		return 0, fmt.Errorf("quantity %s is out of range", s)
	}
	return NewQuantityFromDecimal(d), nil
}
