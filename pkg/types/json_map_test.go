package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapRoundTrip(t *testing.T) {
	original := JSONMap{"reason": "customer walked away", "count": float64(2)}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded JSONMap
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)
}

func TestJSONMapScanNil(t *testing.T) {
	decoded := JSONMap{"stale": true}
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}

func TestJSONMapScanBytes(t *testing.T) {
	var decoded JSONMap
	require.NoError(t, decoded.Scan([]byte(`{"order_ref":"ORD-1"}`)))
	assert.Equal(t, "ORD-1", decoded["order_ref"])
}

func TestJSONMapMergeDoesNotMutateReceiver(t *testing.T) {
	base := JSONMap{"source": "kiosk-7"}
	merged := base.Merge(JSONMap{"external_order_ref": "ORD-1"})

	assert.Equal(t, "ORD-1", merged["external_order_ref"])
	assert.Equal(t, "kiosk-7", merged["source"])
	_, leaked := base["external_order_ref"]
	assert.False(t, leaked)
}

func TestJSONMapMergeEmptyOther(t *testing.T) {
	base := JSONMap{"a": 1}
	assert.Equal(t, base, base.Merge(nil))
}
