package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
)

// Builder collects postings for one document. Zero amounts are dropped and a
// negative amount posts to the opposite side.
type Builder struct {
	req Request
}

// NewBuilder starts an entry for a document.
func NewBuilder(sourceType SourceType, sourceID id.ID, date time.Time, memo string) *Builder {
	return &Builder{req: Request{SourceType: sourceType, SourceID: sourceID, Date: date, Memo: memo}}
}

// Debit adds a debit line.
func (b *Builder) Debit(account Account, itemID *id.ID, amount decimal.Decimal, memo string) *Builder {
	return b.add(account, itemID, amount, memo, true)
}

// Credit adds a credit line.
func (b *Builder) Credit(account Account, itemID *id.ID, amount decimal.Decimal, memo string) *Builder {
	return b.add(account, itemID, amount, memo, false)
}

func (b *Builder) add(account Account, itemID *id.ID, amount decimal.Decimal, memo string, debit bool) *Builder {
	if amount.IsZero() {
		return b
	}
	if amount.IsNegative() {
		amount = amount.Neg()
		debit = !debit
	}
	l := Line{Account: account, ItemID: itemID, Memo: memo}
	if debit {
		l.Debit = amount
	} else {
		l.Credit = amount
	}
	b.req.Lines = append(b.req.Lines, l)
	return b
}

// Empty reports whether no lines were added.
func (b *Builder) Empty() bool {
	return len(b.req.Lines) == 0
}

// Request returns the built request.
func (b *Builder) Request() Request {
	return b.req
}
