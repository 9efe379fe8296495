package report_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/reports"
)

func TestValuationQuery(t *testing.T) {
	loc := []id.ID{id.New()}
	items := []id.ID{id.New()}

	sql, args, err := valuationQuery(reports.ValuationFilter{
		LocationIDs: loc,
		ItemIDs:     items,
		Search:      "bolt",
	}).ToSql()

	require.NoError(t, err)
	assert.Contains(t, sql, "LEFT JOIN reg_inventory_levels l ON l.item_id = p.id AND l.location_id = ANY($1)")
	assert.Contains(t, sql, "p.type = $2")
	assert.Contains(t, sql, "p.id = ANY($4)")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY p.code, p.id, loc.code"))
	assert.Equal(t, []any{loc, "inventory", false, items, "%bolt%", "%bolt%"}, args)
}

func TestJournalUnion(t *testing.T) {
	all := journalUnion(nil)
	assert.Equal(t, len(journalSources)-1, strings.Count(all, "UNION ALL"))

	one := journalUnion([]string{"vendor_bill", "unknown"})
	assert.NotContains(t, one, "UNION ALL")
	assert.Contains(t, one, "'vendor_bill' AS document_type")
	assert.Contains(t, one, "NULL::uuid AS location_id")

	assert.Empty(t, journalUnion([]string{"unknown"}))
}

func TestJournalOrder(t *testing.T) {
	tests := []struct {
		sortBy, order, want string
	}{
		{"amount", "asc", "total_gross ASC, number ASC, id"},
		{"type", "", "document_type DESC, number DESC, id"},
		{"date; DROP TABLE x", "desc", "date DESC, number DESC, id"},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			got := journalOrder(reports.DocumentJournalFilter{SortBy: tt.sortBy, SortOrder: tt.order})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJournalBaseFilters(t *testing.T) {
	vendors := []id.ID{id.New()}

	sql, args, err := journalBase("SELECT 1", reports.DocumentJournalFilter{
		Status:         "open",
		NumberContains: "PO",
		VendorIDs:      vendors,
	}, "COUNT(*)").ToSql()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM (SELECT 1) AS j WHERE status = $1 AND number ILIKE $2 AND vendor_id = ANY($3)",
		sql)
	assert.Equal(t, []any{"open", "%PO%", vendors}, args)
}

func TestDocumentTypes(t *testing.T) {
	assert.Equal(t, []string{
		"purchase_order", "item_receipt", "vendor_bill",
		"vendor_credit", "inventory_adjustment", "inventory_transfer",
	}, DocumentTypes())
}
