package documents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/rules"
)

func TestCheckRules_RunningOnHand(t *testing.T) {
	ctx := context.Background()
	f := doctest.New()
	loc := id.New()
	item := f.Item("1")
	labour := f.Service()
	f.OnHand(item, loc, 5)

	ok := []documents.Movement{
		{ItemID: item, LocationID: loc, Change: doctest.Qty(-3)},
		{ItemID: labour, LocationID: loc, Change: doctest.Qty(-100)},
		{ItemID: item, LocationID: loc, Change: doctest.Qty(-2)},
	}
	assert.NoError(t, documents.CheckRules(ctx, f.Deps, rules.ScopeTransfer, ok))

	over := append(ok, documents.Movement{ItemID: item, LocationID: loc, Change: doctest.Qty(-1)})
	err := documents.CheckRules(ctx, f.Deps, rules.ScopeTransfer, over)
	assert.True(t, apperror.HasCode(err, rules.CodeWithinOnHand), "%v", err)

	gainFirst := []documents.Movement{
		{ItemID: item, LocationID: loc, Change: doctest.Qty(4)},
		{ItemID: item, LocationID: loc, Change: doctest.Qty(-9)},
	}
	assert.NoError(t, documents.CheckRules(ctx, f.Deps, rules.ScopeAdjustment, gainFirst))
}

func TestCheckRules_NoEngine(t *testing.T) {
	f := doctest.New()
	deps := f.Deps
	deps.Rules = nil
	err := documents.CheckRules(context.Background(), deps, rules.ScopeTransfer,
		[]documents.Movement{{ItemID: f.Item("1"), LocationID: id.New(), Change: doctest.Qty(-1)}})
	assert.NoError(t, err)
}
