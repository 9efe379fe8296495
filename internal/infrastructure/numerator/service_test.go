package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockbook/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key, incremented by
// the second argument.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	key := args[0].(string)
	m.values[key] += args[1].(int64)
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("PO")

	first, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00001", first)
	assert.Equal(t, "PO-2026-00002", second)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_YearsAreSeparate(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("IR")

	_, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	next, err := svc.GetNextNumber(context.Background(), cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "IR-2027-00001", next)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("VB")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}
	ctx := context.Background()

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "VB-2026-00001", num)
	assert.Equal(t, int64(10), q.values["VB/2026"])

	for i := 0; i < 9; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls, "range served from memory")

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "VB-2026-00011", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_Error(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection refused")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("PO"), nil, period)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PO/2026")
}

func TestSequenceKey(t *testing.T) {
	tests := []struct {
		reset string
		want  string
	}{
		{"year", "PO/2026"},
		{"month", "PO/2026-03"},
		{"never", "PO/all"},
	}
	for _, tt := range tests {
		t.Run(tt.reset, func(t *testing.T) {
			cfg := corenumerator.DefaultConfig("PO")
			cfg.ResetPeriod = tt.reset
			assert.Equal(t, tt.want, SequenceKey(cfg, period))
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("PO-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("ADJ-00007"))
	assert.Equal(t, int64(-1), ParseNumber("PO-"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
