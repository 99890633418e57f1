package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", payload{Pair: "EURUSD", Price: 1.1}, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, payload{Pair: "EURUSD", Price: 1.1}, got)

	require.NoError(t, mc.Delete(ctx, "k"))
	assert.ErrorIs(t, mc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc, now := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	*now = now.Add(2 * time.Minute)

	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc, now := newTestCache(t, WithMemoryMaxSize(2))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	*now = now.Add(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheLocks(t *testing.T) {
	mc, now := newTestCache(t)
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok, "held")

	*now = now.Add(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok, "expired lock is reclaimed")

	require.NoError(t, mc.Unlock(ctx, "job"))
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "series:EURUSD:4", GenerateKeyWithParams("series", "EURUSD", 4))
	assert.Equal(t, "series", GenerateKeyWithParams("series"))
}

func TestCloseIsIdempotent(t *testing.T) {
	mc := NewMemoryCache()
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}
