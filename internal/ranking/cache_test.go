package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rankings:3", []byte(`[{"teamNumber":254}]`), time.Hour))

	data, err := cache.Get(ctx, "rankings:3")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"teamNumber":254}]`), data)
}

func TestRedisCache_MissReturnsNil(t *testing.T) {
	cache, _ := setupTestCache(t)

	data, err := cache.Get(context.Background(), "rankings:999")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rankings:5", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)

	data, err := cache.Get(ctx, "rankings:5")
	require.NoError(t, err)
	assert.Nil(t, data)
}
