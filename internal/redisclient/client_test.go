package redisclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisForTest connects to a local Redis and skips when none is running
func setupRedisForTest(t *testing.T) (*Client, func()) {
	t.Helper()

	raw := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	client := NewClient(raw)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping: Redis not available")
	}

	return client, func() {
		ctx := context.Background()
		client.Del(ctx,
			"test:rc:key1", "test:rc:key2", "test:rc:counter",
			"test:rc:setnx", "test:rc:ttl", "test:rc:expire",
		)
	}
}

func TestNewClient(t *testing.T) {
	raw := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	client := NewClient(raw)

	require.NotNil(t, client)
	assert.NotNil(t, client.Pipeline())
}

func TestClient_SetGet(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:rc:key1", "value1", 10*time.Second).Err())

	got, err := client.Get(ctx, "test:rc:key1").Result()
	require.NoError(t, err)
	assert.Equal(t, "value1", got)

	err = client.Get(ctx, "test:rc:missing").Err()
	assert.Equal(t, redis.Nil, err)
}

func TestClient_SetNX(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	first, err := client.SetNX(ctx, "test:rc:setnx", "a", 10*time.Second).Result()
	require.NoError(t, err)
	assert.True(t, first)

	second, err := client.SetNX(ctx, "test:rc:setnx", "b", 10*time.Second).Result()
	require.NoError(t, err)
	assert.False(t, second)

	got, err := client.Get(ctx, "test:rc:setnx").Result()
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestClient_DelAndExists(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:rc:key1", "v", 10*time.Second).Err())
	require.NoError(t, client.Set(ctx, "test:rc:key2", "v", 10*time.Second).Err())

	n, err := client.Exists(ctx, "test:rc:key1", "test:rc:key2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := client.Del(ctx, "test:rc:key1", "test:rc:key2", "test:rc:missing").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	n, err = client.Exists(ctx, "test:rc:key1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClient_IncrAndExpire(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	client.Del(ctx, "test:rc:counter")

	for want := int64(1); want <= 3; want++ {
		n, err := client.Incr(ctx, "test:rc:counter").Result()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ok, err := client.Expire(ctx, "test:rc:counter", time.Minute).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.TTL(ctx, "test:rc:counter").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}

func TestClient_TTLWithoutExpiry(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:rc:ttl", "v", 0).Err())
	defer client.Del(ctx, "test:rc:ttl")

	ttl, err := client.TTL(ctx, "test:rc:ttl").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestClient_Pipeline(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	pipe := client.Pipeline()
	pipe.Set(ctx, "test:rc:key1", "a", 10*time.Second)
	pipe.Set(ctx, "test:rc:key2", "b", 10*time.Second)
	getCmd := pipe.Get(ctx, "test:rc:key1")

	_, err := pipe.Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", getCmd.Val())
}

func TestClient_ConcurrentIncr(t *testing.T) {
	client, cleanup := setupRedisForTest(t)
	defer cleanup()
	ctx := context.Background()

	client.Del(ctx, "test:rc:counter")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Incr(ctx, "test:rc:counter")
		}()
	}
	wg.Wait()

	n, err := client.Get(ctx, "test:rc:counter").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}
