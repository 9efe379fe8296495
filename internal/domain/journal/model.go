// Package journal turns document effects into balanced general-ledger entries.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

// Account is a posting account code.
type Account string

const (
	AccountInventory           Account = "inventory"
	AccountGRNI                Account = "grni" // goods received, not invoiced
	AccountPayable             Account = "accounts_payable"
	AccountInputTax            Account = "input_tax"
	AccountInventoryAdjustment Account = "inventory_adjustment"
	AccountPriceVariance       Account = "purchase_price_variance"
	AccountExpense             Account = "expense"
)

// SourceType names the document kind that produced an entry.
type SourceType string

const (
	SourceItemReceipt         SourceType = "item_receipt"
	SourceVendorBill          SourceType = "vendor_bill"
	SourceVendorCredit        SourceType = "vendor_credit"
	SourceInventoryAdjustment SourceType = "inventory_adjustment"
)

// Line is one side of a posting. Exactly one of Debit and Credit is non-zero.
type Line struct {
	Account Account         `json:"account"`
	ItemID  *id.ID          `json:"itemId,omitempty"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Memo    string          `json:"memo,omitempty"`
}

// Request asks for one entry covering the GL impact of a document.
type Request struct {
	SourceType SourceType `json:"sourceType"`
	SourceID   id.ID      `json:"sourceId"`
	Date       time.Time  `json:"date"`
	Memo       string     `json:"memo,omitempty"`
	Lines      []Line     `json:"lines"`
}

// Validate checks the request is postable: at least one line, no negative
// amounts, one side per line and debits equal to credits.
func (r Request) Validate() error {
	if r.SourceType == "" || id.IsNil(r.SourceID) {
		return apperror.NewValidation("journal entry must reference its source document")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("journal entry has no lines").
			WithDetail("source_id", r.SourceID.String())
	}

	debits, credits := decimal.Zero, decimal.Zero
	for i, l := range r.Lines {
		if l.Account == "" {
			return apperror.NewValidation(fmt.Sprintf("line %d: account is required", i+1))
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("line %d: amounts cannot be negative", i+1)).
				WithDetail("account", string(l.Account))
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return apperror.NewValidation(fmt.Sprintf("line %d: exactly one of debit and credit must be set", i+1)).
				WithDetail("account", string(l.Account))
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}

	if !debits.Equal(credits) {
		return apperror.NewValidation("journal entry is not balanced").
			WithDetail("debits", debits.String()).
			WithDetail("credits", credits.String())
	}
	return nil
}

// Totals returns summed debits and credits.
func (r Request) Totals() (debits, credits decimal.Decimal) {
	for _, l := range r.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// Entry is a posted journal entry.
type Entry struct {
	ID         id.ID      `db:"id" json:"id"`
	SourceType SourceType `db:"source_type" json:"sourceType"`
	SourceID   id.ID      `db:"source_id" json:"sourceId"`
	Date       time.Time  `db:"entry_date" json:"date"`
	Memo       string     `db:"memo" json:"memo,omitempty"`
	Lines      []Line     `db:"-" json:"lines"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// Poster posts and removes the GL impact of documents. Implementations are the
// local journal Service and the remote GL client.
type Poster interface {
	Post(ctx context.Context, req Request) (Entry, error)
	// Reverse removes every entry of the source document.
	Reverse(ctx context.Context, sourceType SourceType, sourceID id.ID) error
	ForSource(ctx context.Context, sourceType SourceType, sourceID id.ID) ([]Entry, error)
}

// IsExternal reports whether p posts outside the local database, so its
// entries survive a transaction rollback and need reversing.
func IsExternal(p Poster) bool {
	e, ok := p.(interface{ IsExternal() bool })
	return ok && e.IsExternal()
}

// Request rebuilds the request an entry was posted from.
func (e Entry) Request() Request {
	return Request{SourceType: e.SourceType, SourceID: e.SourceID, Date: e.Date, Memo: e.Memo, Lines: e.Lines}
}
