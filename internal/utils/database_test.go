package utils

import (
	"context"
	"testing"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCacheKeys(t *testing.T) {
	assert.Equal(t, "user:abc", UserCacheKey("abc"))
	assert.Equal(t, "user_vehicles:abc", UserVehiclesCacheKey("abc"))
}

func TestInvalidateUserCache(t *testing.T) {
	requireRedis(t)
	ctx := context.Background()

	userID := "cache-test-user"
	require.NoError(t, config.Redis.Set(ctx, UserCacheKey(userID), "profile", time.Minute).Err())
	require.NoError(t, config.Redis.Set(ctx, UserVehiclesCacheKey(userID), "vehicles", time.Minute).Err())

	require.NoError(t, InvalidateUserCache(ctx, userID))

	for _, key := range []string{UserCacheKey(userID), UserVehiclesCacheKey(userID)} {
		exists, err := config.Redis.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 0, exists, key)
	}
}

func TestInvalidateUserCache_NoKeys(t *testing.T) {
	requireRedis(t)
	assert.NoError(t, InvalidateUserCache(context.Background(), "never-cached-user"))
}
