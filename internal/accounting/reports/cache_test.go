package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BalanceCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBalanceCache(client, time.Minute)
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	asOf := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	_, ok := cache.Get(ctx, 7, asOf)
	require.False(t, ok)

	cache.Set(ctx, 7, asOf, d("1234.56"))

	got, ok := cache.Get(ctx, 7, asOf)
	require.True(t, ok)
	require.True(t, got.Equal(d("1234.56")))

	// Different date misses.
	_, ok = cache.Get(ctx, 7, asOf.AddDate(0, 0, 1))
	require.False(t, ok)
}

func TestBalanceCacheInvalidateBumpsVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	asOf := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	cache.Set(ctx, 3, asOf, d("10.00"))
	cache.Invalidate(ctx, 3)

	_, ok := cache.Get(ctx, 3, asOf)
	require.False(t, ok)

	// Untouched ledgers keep their cached value.
	cache.Set(ctx, 4, asOf, d("20.00"))
	cache.Invalidate(ctx, 3)
	got, ok := cache.Get(ctx, 4, asOf)
	require.True(t, ok)
	require.True(t, got.Equal(d("20.00")))
}

func TestBalanceCacheDisabled(t *testing.T) {
	ctx := context.Background()
	asOf := time.Now()

	var nilCache *BalanceCache
	_, ok := nilCache.Get(ctx, 1, asOf)
	require.False(t, ok)
	nilCache.Set(ctx, 1, asOf, decimal.Zero)
	nilCache.Invalidate(ctx, 1)

	noClient := NewBalanceCache(nil, time.Minute)
	_, ok = noClient.Get(ctx, 1, asOf)
	require.False(t, ok)
}
