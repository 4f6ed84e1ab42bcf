//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/proposalagent/backend/internal/domain"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return url
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	url := setupRedis(t)

	cache, err := NewRedisCache(ctx, RedisConfig{URL: url, Prefix: "test:"})
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	stored := sampleResult("p-1")
	stored.Bundles = []domain.ProductBundle{{
		Name:       "Office Setup",
		Products:   []domain.BundleItem{{ProductID: "p-1", ProductName: "Office Container", Quantity: 1}},
		TotalPrice: 90000,
		Savings:    10000,
		Confidence: 0.5,
	}}
	require.NoError(t, cache.Put(ctx, "k1", stored))

	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	require.NoError(t, cache.Delete(ctx, "k1"))
	_, err = cache.Get(ctx, "k1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_TTLAndClear(t *testing.T) {
	ctx := context.Background()
	url := setupRedis(t)

	cache, err := NewRedisCache(ctx, RedisConfig{URL: url, TTL: time.Second})
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Put(ctx, "a", sampleResult("a")))
	require.NoError(t, cache.Put(ctx, "b", sampleResult("b")))
	require.NoError(t, cache.Clear(ctx))

	_, err = cache.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Put(ctx, "c", sampleResult("c")))
	time.Sleep(1500 * time.Millisecond)
	_, err = cache.Get(ctx, "c")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{URL: "redis://127.0.0.1:1/0"})
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}
