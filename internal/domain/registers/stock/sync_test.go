package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func q(units int64) types.Quantity { return types.NewQuantity(units) }

func TestBulkSetQuantity_AtMostTwoWrites(t *testing.T) {
	for _, size := range []int{1, 2, 7, 50, 500} {
		repo := NewMemoryRepository()
		svc := NewService(repo, StaticKinds{})
		loc := id.New()

		items := make([]QuantitySet, size)
		for i := range items {
			itemID := id.New()
			if i%2 == 0 {
				repo.Seed(itemID, loc, q(1))
			}
			items[i] = QuantitySet{ItemID: itemID, LocationID: loc, Quantity: q(int64(i + 10))}
		}

		results, err := svc.BulkSetQuantity(context.Background(), items)
		require.NoError(t, err)
		require.Len(t, results, size)
		assert.LessOrEqual(t, repo.Writes(), 2, "batch of %d", size)
		assert.Equal(t, 1, repo.FindCalls, "existence is checked in one round trip")

		for i, it := range items {
			assert.Equal(t, it.Quantity, repo.Quantity(it.ItemID, loc))
			assert.Equal(t, i%2 != 0, results[i].Created)
		}
	}
}

func TestBulkSetQuantity_SkipsServiceItems(t *testing.T) {
	repo := NewMemoryRepository()
	serviceItem, goods, loc := id.New(), id.New(), id.New()
	svc := NewService(repo, StaticKinds{Services: map[id.ID]bool{serviceItem: true}})

	results, err := svc.BulkSetQuantity(context.Background(), []QuantitySet{
		{ItemID: serviceItem, LocationID: loc, Quantity: q(5)},
		{ItemID: goods, LocationID: loc, Quantity: q(3)},
	})
	require.NoError(t, err)

	assert.True(t, results[0].Skipped)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, types.Quantity(0), repo.Quantity(serviceItem, loc))
	assert.Equal(t, q(3), repo.Quantity(goods, loc))
	assert.Equal(t, 1, repo.Writes())
}

func TestBulkSetQuantity_OnlyServiceItemsWritesNothing(t *testing.T) {
	repo := NewMemoryRepository()
	serviceItem := id.New()
	svc := NewService(repo, StaticKinds{Services: map[id.ID]bool{serviceItem: true}})

	results, err := svc.BulkSetQuantity(context.Background(), []QuantitySet{{ItemID: serviceItem, LocationID: id.New(), Quantity: q(1)}})
	require.NoError(t, err)
	assert.True(t, results[0].Skipped)
	assert.Zero(t, repo.FindCalls)
	assert.Zero(t, repo.Writes())
}

func TestBulkSetQuantity_LookupFailureIsPerItem(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, StaticKinds{})
	bad, good, loc := id.New(), id.New(), id.New()
	repo.FailLookup = map[Key]error{{ItemID: bad, LocationID: loc}: errors.New("timeout")}

	results, err := svc.BulkSetQuantity(context.Background(), []QuantitySet{
		{ItemID: bad, LocationID: loc, Quantity: q(1)},
		{ItemID: good, LocationID: loc, Quantity: q(2)},
	})
	require.NoError(t, err)

	assert.False(t, results[0].OK())
	assert.Equal(t, "timeout", results[0].Error)
	assert.True(t, results[1].OK())
	assert.Equal(t, q(2), repo.Quantity(good, loc))
}

func TestBulkSetQuantity_WriteFailureAborts(t *testing.T) {
	repo := NewMemoryRepository()
	repo.FailWrites = errors.New("connection reset")
	svc := NewService(repo, StaticKinds{})

	_, err := svc.BulkSetQuantity(context.Background(), []QuantitySet{{ItemID: id.New(), LocationID: id.New(), Quantity: q(1)}})
	assert.ErrorContains(t, err, "connection reset")
}

func TestBulkSetQuantity_RepeatedPairLastWins(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, StaticKinds{})
	item, loc := id.New(), id.New()

	results, err := svc.BulkSetQuantity(context.Background(), []QuantitySet{
		{ItemID: item, LocationID: loc, Quantity: q(4)},
		{ItemID: item, LocationID: loc, Quantity: q(9)},
	})
	require.NoError(t, err)
	assert.Equal(t, q(9), repo.Quantity(item, loc))
	assert.Equal(t, q(9), results[0].Quantity)
	assert.Equal(t, results[0].LevelID, results[1].LevelID)
}

func TestBulkSetQuantity_MergesAttributes(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, StaticKinds{})
	item, loc := id.New(), id.New()
	ctx := context.Background()

	_, err := svc.BulkSetQuantity(ctx, []QuantitySet{{ItemID: item, LocationID: loc, Quantity: q(1), Attributes: entity.Attributes{"bin": "A1"}}})
	require.NoError(t, err)
	_, err = svc.BulkSetQuantity(ctx, []QuantitySet{{ItemID: item, LocationID: loc, Quantity: q(2), Attributes: entity.Attributes{"reorderPoint": "5"}}})
	require.NoError(t, err)

	level, err := svc.GetLevel(ctx, item, loc)
	require.NoError(t, err)
	assert.Equal(t, entity.Attributes{"bin": "A1", "reorderPoint": "5"}, level.Attributes)
}

func TestAccessor(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, StaticKinds{})
	ctx := context.Background()
	item, locA, locB := id.New(), id.New(), id.New()

	qty, err := svc.GetQuantity(ctx, item, locA)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), qty, "missing level reads as zero")

	_, err = svc.SetQuantity(ctx, item, locA, q(10))
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, item, locA, q(7))
	require.NoError(t, err)

	qty, err = svc.AdjustQuantity(ctx, item, locB, types.MustQuantity("-2.5"))
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("-2.5"), qty, "negative on-hand flows through")

	total, err := svc.TotalQuantity(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("4.5"), total)

	levels, count, err := svc.ListLevels(ctx, LevelFilter{ItemID: &item})
	require.NoError(t, err)
	assert.Len(t, levels, 2)
	assert.Equal(t, int64(2), count)
}
