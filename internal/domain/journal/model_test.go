package journal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRequest_Validate(t *testing.T) {
	src := id.New()
	tests := []struct {
		name    string
		lines   []Line
		wantErr string
	}{
		{
			name: "balanced",
			lines: []Line{
				{Account: AccountInventory, Debit: amt("50")},
				{Account: AccountGRNI, Credit: amt("50")},
			},
		},
		{name: "no lines", wantErr: "no lines"},
		{
			name: "unbalanced",
			lines: []Line{
				{Account: AccountInventory, Debit: amt("50")},
				{Account: AccountGRNI, Credit: amt("49.99")},
			},
			wantErr: "not balanced",
		},
		{
			name: "negative",
			lines: []Line{
				{Account: AccountInventory, Debit: amt("-5")},
				{Account: AccountGRNI, Debit: amt("5")},
			},
			wantErr: "negative",
		},
		{
			name: "both sides",
			lines: []Line{
				{Account: AccountInventory, Debit: amt("5"), Credit: amt("5")},
			},
			wantErr: "exactly one",
		},
		{
			name: "neither side",
			lines: []Line{
				{Account: AccountInventory},
			},
			wantErr: "exactly one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Request{SourceType: SourceItemReceipt, SourceID: src, Lines: tt.lines}.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuilder_FlipsNegativeAndDropsZero(t *testing.T) {
	b := NewBuilder(SourceVendorCredit, id.New(), time.Now(), "credit")
	b.Debit(AccountPayable, nil, amt("110"), "").
		Credit(AccountInventory, nil, amt("100"), "").
		Credit(AccountPriceVariance, nil, amt("-5"), "").
		Credit(AccountInputTax, nil, amt("15"), "").
		Credit(AccountExpense, nil, decimal.Zero, "")

	req := b.Request()
	require.Len(t, req.Lines, 4)
	assert.True(t, amt("5").Equal(req.Lines[2].Debit))
	assert.True(t, req.Lines[2].Credit.IsZero())
	assert.NoError(t, req.Validate())
}

func TestService_PostAndReverse(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	src := id.New()

	req := NewBuilder(SourceItemReceipt, src, time.Now(), "").
		Debit(AccountInventory, nil, amt("12.5"), "").
		Credit(AccountGRNI, nil, amt("12.5"), "").
		Request()

	e, err := svc.Post(ctx, req)
	require.NoError(t, err)
	assert.False(t, id.IsNil(e.ID))

	entries, err := svc.ForSource(ctx, SourceItemReceipt, src)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.Post(ctx, Request{SourceType: SourceItemReceipt, SourceID: src})
	assert.Error(t, err)
	assert.Equal(t, 1, repo.Len(), "invalid requests are not stored")

	require.NoError(t, svc.Reverse(ctx, SourceItemReceipt, src))
	assert.Zero(t, repo.Len())
}
