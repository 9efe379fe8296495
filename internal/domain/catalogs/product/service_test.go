package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/valuation"
)

func newTestService() (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	return NewService(repo, tx.Nop{}, numerator.NewMockGenerator()), repo
}

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		product *Product
		wantErr bool
	}{
		{"inventory", NewProduct("A1", "Bolt", TypeInventory), false},
		{"service", NewProduct("S1", "Freight", TypeService), false},
		{"unknown type", NewProduct("X1", "Thing", Type("kit")), true},
		{"missing name", NewProduct("A2", " ", TypeInventory), true},
		{"negative cost", func() *Product {
			p := NewProduct("A3", "Nut", TypeInventory)
			p.AverageCost = decimal.NewFromInt(-1)
			return p
		}(), true},
		{"service with cost", func() *Product {
			p := NewProduct("S2", "Install", TypeService)
			p.AverageCost = decimal.NewFromInt(3)
			return p
		}(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CreateGeneratesCode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p := NewProduct("", "Washer", TypeInventory)
	require.NoError(t, svc.Create(ctx, p))
	assert.Equal(t, "SKU-000001", p.Code)

	dup := NewProduct(p.Code, "Washer again", TypeInventory)
	err := svc.Create(ctx, dup)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_UpdateKeepsAverageCost(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p := NewProduct("A1", "Bolt", TypeInventory)
	require.NoError(t, svc.Create(ctx, p))
	require.NoError(t, repo.SetAverageCost(ctx, p.ID, decimal.NewFromInt(7)))

	edited := NewProduct("A1", "Bolt M8", TypeInventory)
	edited.ID = p.ID
	edited.AverageCost = decimal.NewFromInt(1)
	require.NoError(t, svc.Update(ctx, edited))

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt M8", got.Name)
	assert.True(t, decimal.NewFromInt(7).Equal(got.AverageCost))

	toService := NewProduct("A1", "Bolt M8", TypeService)
	toService.ID = p.ID
	err = svc.Update(ctx, toService)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestService_CostStoreAndKinds(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	goods := NewProduct("A1", "Bolt", TypeInventory)
	labour := NewProduct("S1", "Labour", TypeService)
	require.NoError(t, svc.Create(ctx, goods))
	require.NoError(t, svc.Create(ctx, labour))

	unknown := id.New()
	kinds, err := svc.TrackedItems(ctx, []id.ID{goods.ID, labour.ID, unknown})
	require.NoError(t, err)
	assert.Equal(t, map[id.ID]bool{goods.ID: true, labour.ID: false}, kinds)

	// the product service drives a full receipt through valuation
	levels := stock.NewMemoryRepository()
	proc := valuation.NewProcessor(stock.NewService(levels, svc), svc)
	loc := id.New()
	_, err = proc.ProcessReceipts(ctx, valuation.ModeCreate, []valuation.Receipt{
		{ItemID: goods.ID, LocationID: loc, Quantity: 0, Rate: decimal.NewFromInt(4)},
		{ItemID: goods.ID, LocationID: loc, Quantity: 20000, Rate: decimal.NewFromInt(4)},
	})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, goods.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(got.AverageCost))
	assert.Equal(t, int64(20000), levels.Quantity(goods.ID, loc).Int64Scaled())
}
