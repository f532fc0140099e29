package services

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

// setupTestEnvironment loads test configuration and connects to MongoDB and
// Redis when they are reachable. Tests that need a backend skip when the
// corresponding client stayed nil.
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

// swapTestCollections points the services at throwaway collections and
// returns a cleanup func that drops them and restores the originals.
func swapTestCollections(t *testing.T) func() {
	t.Helper()
	setupTestEnvironment()

	if config.MongoDB == nil {
		t.Skip("Skipping: MongoDB not available")
	}

	ctx := context.Background()

	originalUserCollection := config.AppConfig.UserCollection
	originalSessionCollection := config.AppConfig.VerificationSessionCollection
	originalVehicleCollection := config.AppConfig.VehicleCollection

	config.AppConfig.UserCollection = "test_users"
	config.AppConfig.VerificationSessionCollection = "test_verification_sessions"
	config.AppConfig.VehicleCollection = "test_vehicles"

	if err := config.EnsureIndexes(); err != nil {
		t.Fatalf("failed to ensure test indexes: %v", err)
	}

	return func() {
		config.MongoDB.Collection(config.AppConfig.UserCollection).Drop(ctx)
		config.MongoDB.Collection(config.AppConfig.VerificationSessionCollection).Drop(ctx)
		config.MongoDB.Collection(config.AppConfig.VehicleCollection).Drop(ctx)

		config.AppConfig.UserCollection = originalUserCollection
		config.AppConfig.VerificationSessionCollection = originalSessionCollection
		config.AppConfig.VehicleCollection = originalVehicleCollection
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
