package utils

import (
	"context"
	"fmt"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"go.uber.org/zap"
)

// UserCacheKey returns the cache key holding a user's profile
func UserCacheKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// UserVehiclesCacheKey returns the cache key holding a user's vehicle list
func UserVehiclesCacheKey(userID string) string {
	return fmt.Sprintf("user_vehicles:%s", userID)
}

// InvalidateUserCache drops every cache entry derived from a user record.
// Called after any mutation of the user or their vehicles.
func InvalidateUserCache(ctx context.Context, userID string) error {
	if config.Redis == nil {
		return nil
	}

	keys := []string{UserCacheKey(userID), UserVehiclesCacheKey(userID)}
	if err := NewRedisPipeline(ctx).BatchDelete(keys); err != nil {
		logging.Logger.Warn("failed to invalidate user cache",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}

	return nil
}
