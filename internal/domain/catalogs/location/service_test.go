package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
)

func TestService_RequireActive(t *testing.T) {
	ctx := context.Background()
	repo := domain.NewMemoryCatalogRepository[*Location]()
	svc := NewService(repo, tx.Nop{})

	primary := NewLocation("MAIN", "Main warehouse")
	closed := NewLocation("OLD", "Old store")
	closed.IsActive = false
	require.NoError(t, svc.Create(ctx, primary))
	require.NoError(t, svc.Create(ctx, closed))

	assert.NoError(t, svc.RequireActive(ctx, primary.ID, primary.ID))
	assert.True(t, apperror.HasCode(svc.RequireActive(ctx, primary.ID, closed.ID), apperror.CodeBusinessRule))
	assert.True(t, apperror.IsNotFound(svc.RequireActive(ctx, id.New())))

	require.NoError(t, svc.Delete(ctx, primary.ID))
	assert.Error(t, svc.RequireActive(ctx, primary.ID), "deletion mark blocks movements")
}

func TestService_ListHidesDeleted(t *testing.T) {
	ctx := context.Background()
	svc := NewService(domain.NewMemoryCatalogRepository[*Location](), tx.Nop{})

	a := NewLocation("A", "Aisle A")
	b := NewLocation("B", "Aisle B")
	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))
	require.NoError(t, svc.Delete(ctx, b.ID))

	res, err := svc.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "A", res.Results[0].Code)

	res, err = svc.List(ctx, domain.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalItems)
}
