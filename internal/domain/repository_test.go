package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFilter_Normalize(t *testing.T) {
	tests := []struct {
		name               string
		in                 ListFilter
		wantPage, wantSize int
		wantOffset         int
	}{
		{"zero values", ListFilter{}, 1, DefaultPageSize, 0},
		{"third page", ListFilter{Page: 3, PageSize: 20}, 3, 20, 40},
		{"oversized page", ListFilter{Page: 1, PageSize: 10_000}, 1, MaxPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in
			f.Normalize()
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSize, f.Limit())
			assert.Equal(t, tt.wantOffset, f.Offset())
		})
	}
}

func TestNewListResult_NeverNull(t *testing.T) {
	res := NewListResult[string](nil, 0, ListFilter{Page: 1, PageSize: 10})
	assert.NotNil(t, res.Results)
	assert.Equal(t, 1, res.CurrentPage)

	mapped := MapListResult(NewListResult([]int{1, 2}, 7, ListFilter{Page: 2, PageSize: 2}), func(v int) int { return v * 10 })
	assert.Equal(t, []int{10, 20}, mapped.Results)
	assert.Equal(t, int64(7), mapped.TotalItems)
	assert.Equal(t, 2, mapped.CurrentPage)
}
