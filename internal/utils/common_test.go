package utils

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/redisclient"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var testInitOnce sync.Once

// setupTestEnvironment loads test configuration and connects to the backends
// that are reachable. Tests depending on a backend skip when its client is nil.
func setupTestEnvironment() {
	testInitOnce.Do(func() {
		defaults := map[string]string{
			"JWT_SECRET":         "test-secret",
			"MONGODB_DATABASE":   "onboarding_test",
			"MAILER_ENABLED":     "false",
			"AUDIT_LOGS_ENABLED": "false",
			"TRACING_ENABLED":    "false",
		}
		for key, value := range defaults {
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}

		if err := config.LoadConfig(); err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.MongoURI))
		if err == nil && client.Ping(ctx, readpref.Primary()) == nil {
			config.MongoDB = client.Database(config.AppConfig.MongoDatabase)
		}

		redisClient := goredis.NewClient(&goredis.Options{
			Addr: "localhost:6379",
			DB:   config.AppConfig.RedisDB,
		})
		if redisClient.Ping(ctx).Err() == nil {
			config.Redis = redisclient.NewClient(redisClient)
		}
	})
}

// requireMongo skips the test when MongoDB is unreachable
func requireMongo(t *testing.T) {
	t.Helper()
	setupTestEnvironment()
	if config.MongoDB == nil {
		t.Skip("Skipping: MongoDB not available")
	}
}

// requireRedis skips the test when Redis is unreachable
func requireRedis(t *testing.T) {
	t.Helper()
	setupTestEnvironment()
	if config.Redis == nil {
		t.Skip("Skipping: Redis not available")
	}
}
