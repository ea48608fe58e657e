package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_PackSmallPayloadStaysInline(t *testing.T) {
	svc, err := NewAuditService(nil, 64)
	require.NoError(t, err)

	var row AuditEntry
	svc.pack(&row, []byte(`{"atados":1}`))

	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.JSONEq(t, `{"atados":1}`, string(row.Changes))
	assert.Nil(t, row.ChangesCompressed)
}

func TestAuditService_PackLargePayloadRoundTrips(t *testing.T) {
	svc, err := NewAuditService(nil, 64)
	require.NoError(t, err)

	payload := append([]byte(`{"x":"`), bytes.Repeat([]byte("a"), 500)...)
	payload = append(payload, []byte(`"}`)...)

	var row AuditEntry
	svc.pack(&row, payload)
	require.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.Less(t, len(row.ChangesCompressed), len(payload))

	require.NoError(t, svc.unpack(&row))
	assert.Equal(t, payload, []byte(row.Changes))
	assert.Nil(t, row.ChangesCompressed)
}

func TestNewAuditService_DefaultThreshold(t *testing.T) {
	svc, err := NewAuditService(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCompressThreshold, svc.compressThreshold)
}
