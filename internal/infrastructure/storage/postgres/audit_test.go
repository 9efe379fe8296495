package postgres

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_PackSmallSnapshotAsIs(t *testing.T) {
	log, err := NewAuditLog(nil)
	require.NoError(t, err)

	raw := json.RawMessage(`{"number":"IR-2026-00001"}`)
	changes, compressed, algo := log.pack(raw)

	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, string(raw), string(changes))
}

func TestAuditLog_PackLargeSnapshotRoundTrip(t *testing.T) {
	log, err := NewAuditLog(nil)
	require.NoError(t, err)

	raw := json.RawMessage(`{"memo":"` + string(bytes.Repeat([]byte("a"), DefaultCompressThreshold)) + `"}`)
	changes, compressed, algo := log.pack(raw)
	require.Equal(t, CompressionZstd, algo)
	assert.Nil(t, changes)
	assert.Less(t, len(compressed), len(raw))

	back, err := log.unpack(changes, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), []byte(back))
}

func TestRetryAt_Backoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		retries int
		want    time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{3, 8 * time.Minute},
		{10, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, now.Add(tt.want), RetryAt(now, tt.retries), "retries=%d", tt.retries)
	}
}
