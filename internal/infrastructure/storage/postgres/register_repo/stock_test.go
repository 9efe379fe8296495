package register_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/registers/stock"
)

func TestLevelColumnsMatchScanOrder(t *testing.T) {
	// FindLevels scans positionally in this order
	assert.Equal(t, []string{"id", "item_id", "location_id", "quantity_available", "attributes", "updated_at"}, levelCols)
}

func TestLevelQuery_NoLockOutsideTransaction(t *testing.T) {
	repo := NewStockRepo(nil)
	key := stock.Key{ItemID: id.New(), LocationID: id.New()}

	sql, args, err := repo.levelQuery(t.Context(), key).ToSql()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, item_id, location_id, quantity_available, attributes, updated_at FROM reg_inventory_levels WHERE item_id = $1 AND location_id = $2",
		sql)
	assert.Equal(t, []any{key.ItemID, key.LocationID}, args)
}
