package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
)

func TestDefaults(t *testing.T) {
	engine, err := NewEngine(Defaults())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		scope    Scope
		facts    Facts
		wantCode string
	}{
		{
			name:  "adjustment down to zero",
			scope: ScopeAdjustment,
			facts: Facts{OnHand: types.NewQuantity(5), Change: types.NewQuantity(-5)},
		},
		{
			name:     "adjustment below zero",
			scope:    ScopeAdjustment,
			facts:    Facts{OnHand: types.NewQuantity(5), Change: types.MustQuantity("-5.0001")},
			wantCode: CodeNonNegative,
		},
		{
			name:  "transfer within on hand",
			scope: ScopeTransfer,
			facts: Facts{OnHand: types.NewQuantity(5), Requested: types.NewQuantity(5)},
		},
		{
			name:     "transfer exceeds on hand",
			scope:    ScopeTransfer,
			facts:    Facts{OnHand: types.NewQuantity(5), Requested: types.NewQuantity(6)},
			wantCode: CodeWithinOnHand,
		},
		{
			name:     "vendor return exceeds on hand",
			scope:    ScopeFulfillment,
			facts:    Facts{OnHand: 0, Requested: types.NewQuantity(1)},
			wantCode: CodeWithinOnHand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Check(ctx, tt.scope, tt.facts)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestNewEngine_RejectsNonBoolean(t *testing.T) {
	_, err := NewEngine([]Definition{{Code: "x", Expression: "onHand + 1.0", Scopes: []Scope{ScopeAdjustment}}})
	assert.ErrorContains(t, err, "must be boolean")
}

func TestNewEngine_RejectsBadSyntax(t *testing.T) {
	_, err := NewEngine([]Definition{{Code: "x", Expression: "onHand >=", Scopes: []Scope{ScopeAdjustment}}})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"code": "dock.only", "expression": "location != \"quarantine\"", "message": "quarantine is frozen", "scopes": ["transfer"]}
	]`), 0o600))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	engine, err := NewEngine(defs)
	require.NoError(t, err)

	err = engine.Check(context.Background(), ScopeTransfer, Facts{LocationID: "quarantine"})
	assert.True(t, apperror.HasCode(err, "dock.only"))
	assert.NoError(t, engine.Check(context.Background(), ScopeAdjustment, Facts{LocationID: "quarantine"}))
}

func TestLoadFile_Empty(t *testing.T) {
	defs, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), defs)
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	assert.NoError(t, e.Check(context.Background(), ScopeTransfer, Facts{Requested: 1}))
}
