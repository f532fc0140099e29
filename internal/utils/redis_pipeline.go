package utils

import (
	"context"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"go.uber.org/zap"
)

// RedisPipeline batches Redis commands into a single round trip
type RedisPipeline struct {
	ctx context.Context
}

// NewRedisPipeline creates a new Redis pipeline utility
func NewRedisPipeline(ctx context.Context) *RedisPipeline {
	return &RedisPipeline{ctx: ctx}
}

// BatchDelete deletes multiple keys in one pipeline execution
func (rp *RedisPipeline) BatchDelete(keys []string) error {
	if len(keys) == 0 || config.Redis == nil {
		return nil
	}

	start := time.Now()
	pipe := config.Redis.Pipeline()

	for _, key := range keys {
		pipe.Del(rp.ctx, key)
	}

	cmds, err := pipe.Exec(rp.ctx)
	if err != nil {
		logging.Logger.Error("failed to execute Redis pipeline",
			zap.Error(err),
			zap.Int("key_count", len(keys)))
		return err
	}

	logging.Logger.Debug("Redis pipeline batch delete completed",
		zap.Int("command_count", len(cmds)),
		zap.Duration("duration", time.Since(start)))

	return nil
}
