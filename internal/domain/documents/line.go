package documents

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/reconcile"
)

var hundred = decimal.NewFromInt(100)

// Line is the common part of a document line.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// TempID identifies a line the client has not saved yet.
	TempID string `db:"-" json:"tempId,omitempty"`
	LineNo int    `db:"line_no" json:"lineNo"`

	ItemID   id.ID           `db:"item_id" json:"itemId"`
	Quantity types.Quantity  `db:"quantity" json:"quantity"`
	Rate     decimal.Decimal `db:"rate" json:"rate"`

	// TaxRate is a percentage (20 means 20%).
	TaxRate decimal.Decimal `db:"tax_rate" json:"taxRate"`

	Net   decimal.Decimal `db:"net" json:"net"`
	Tax   decimal.Decimal `db:"tax" json:"tax"`
	Gross decimal.Decimal `db:"gross" json:"gross"`

	Memo string `db:"memo" json:"memo,omitempty"`
}

// Compute derives net, tax and gross from quantity, rate and tax rate.
// Amounts are rounded to cents.
func (l *Line) Compute() {
	l.Net = l.Quantity.Decimal().Mul(l.Rate).Round(2)
	l.Tax = l.Net.Mul(l.TaxRate).Div(hundred).Round(2)
	l.Gross = l.Net.Add(l.Tax)
}

// Key is the line's stable identity across saves.
func (l *Line) Key() string {
	return reconcile.LineKey(l.LineID, l.TempID)
}

// Totals are document amounts summed from lines.
type Totals struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// LineRules tunes PrepareLines for a document type.
type LineRules struct {
	// Signed allows negative quantities (adjustment lines).
	Signed bool
	// RequireRate rejects lines without a positive rate.
	RequireRate bool
}

// PrepareLines numbers lines from 1, computes their amounts and returns the
// document totals. All problems are reported together as field errors.
func PrepareLines(n int, at func(i int) *Line, r LineRules) (Totals, error) {
	if n == 0 {
		return Totals{}, apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}

	fields := make(map[string][]string)
	bad := func(i int, field, msg string) {
		key := fmt.Sprintf("lines[%d].%s", i, field)
		fields[key] = append(fields[key], msg)
	}

	var t Totals
	for i := 0; i < n; i++ {
		l := at(i)
		l.LineNo = i + 1

		if id.IsNil(l.ItemID) {
			bad(i, "itemId", "item is required")
		}
		switch {
		case r.Signed && l.Quantity.IsZero():
			bad(i, "quantity", "must not be zero")
		case !r.Signed && !l.Quantity.IsPositive():
			bad(i, "quantity", "must be positive")
		}
		if l.Rate.IsNegative() || (r.RequireRate && !l.Rate.IsPositive()) {
			bad(i, "rate", "must be positive")
		}
		if l.TaxRate.IsNegative() {
			bad(i, "taxRate", "cannot be negative")
		}

		l.Compute()
		t.Net = t.Net.Add(l.Net)
		t.Tax = t.Tax.Add(l.Tax)
		t.Gross = t.Gross.Add(l.Gross)
	}

	if len(fields) > 0 {
		return Totals{}, apperror.NewFieldValidation(fields)
	}
	return t, nil
}

// LineChanges is the set of writes that turns the stored lines into the
// current ones.
type LineChanges[L any] struct {
	Insert []L
	Update []L
	Delete []id.ID
}

// Empty reports whether there is nothing to write.
func (c LineChanges[L]) Empty() bool {
	return len(c.Insert) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// DiffLines matches current lines to prior ones by line id. Lines without an
// id get a new one and are inserted; prior lines missing from current are
// deleted. A current line carrying an id that is not among the prior lines is
// rejected.
func DiffLines[L any](prior, current []L, line func(*L) *Line) (LineChanges[L], error) {
	known := make(map[id.ID]bool, len(prior))
	for i := range prior {
		known[line(&prior[i]).LineID] = true
	}

	var ch LineChanges[L]
	seen := make(map[id.ID]bool, len(current))
	for i := range current {
		l := line(&current[i])
		if id.IsNil(l.LineID) {
			l.LineID = id.New()
			ch.Insert = append(ch.Insert, current[i])
			continue
		}
		if !known[l.LineID] {
			return LineChanges[L]{}, apperror.NewValidation("unknown line id").
				WithDetail("field", fmt.Sprintf("lines[%d].lineId", i)).
				WithDetail("line_id", l.LineID.String())
		}
		if seen[l.LineID] {
			return LineChanges[L]{}, apperror.NewValidation("duplicate line id").
				WithDetail("field", fmt.Sprintf("lines[%d].lineId", i)).
				WithDetail("line_id", l.LineID.String())
		}
		seen[l.LineID] = true
		ch.Update = append(ch.Update, current[i])
	}

	for i := range prior {
		if lineID := line(&prior[i]).LineID; !seen[lineID] {
			ch.Delete = append(ch.Delete, lineID)
		}
	}
	return ch, nil
}

// NewLineIDs assigns ids to lines that have none (document create).
func NewLineIDs[L any](lines []L, line func(*L) *Line) {
	for i := range lines {
		if l := line(&lines[i]); id.IsNil(l.LineID) {
			l.LineID = id.New()
		}
	}
}

// Sync refreshes inserted and updated lines from current, for values set
// after the diff was taken (costs charged during valuation).
func (c *LineChanges[L]) Sync(current []L, line func(*L) *Line) {
	byID := make(map[id.ID]L, len(current))
	for i := range current {
		byID[line(&current[i]).LineID] = current[i]
	}
	for i := range c.Insert {
		c.Insert[i] = byID[line(&c.Insert[i]).LineID]
	}
	for i := range c.Update {
		c.Update[i] = byID[line(&c.Update[i]).LineID]
	}
}
