package discount_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

func newTestCache(t *testing.T, ttl time.Duration) (*discount.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return discount.NewCache(client, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	rules := []discount.Rule{percentageRule(1, 7, "10% off", 1000)}
	require.NoError(t, cache.SetJSON(ctx, "rules:vendor:7", rules))

	var got []discount.Rule
	hit, err := cache.GetJSON(ctx, "rules:vendor:7", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].DiscountID)
	require.Equal(t, int32(1000), got[0].Policy.PercentBps)
}

func TestCacheMiss(t *testing.T) {
	t.Parallel()
	cache, _ := newTestCache(t, time.Minute)

	var got []discount.Rule
	hit, err := cache.GetJSON(context.Background(), "rules:vendor:404", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "rules:vendor:7", []discount.Rule{}))
	mr.FastForward(2 * time.Second)

	var got []discount.Rule
	hit, err := cache.GetJSON(ctx, "rules:vendor:7", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestNilCacheIsNoop(t *testing.T) {
	t.Parallel()
	var cache *discount.Cache
	require.NoError(t, cache.SetJSON(context.Background(), "k", "v"))
	hit, err := cache.GetJSON(context.Background(), "k", new(string))
	require.NoError(t, err)
	require.False(t, hit)
}
