package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "variant:111", `{"title":"Jasmine"}`, time.Minute))

	value, ok, err := cache.Get(ctx, "variant:111")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"title":"Jasmine"}`, value)

	require.NoError(t, cache.Clear(ctx))
	_, ok, err = cache.Get(ctx, "variant:111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsExpiredEntries(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", "v", 30*time.Second))

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(31 * time.Second)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entries past their ttl must not be served")
}
