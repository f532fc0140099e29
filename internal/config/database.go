package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/redisclient"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := EnsureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         strings.TrimPrefix(AppConfig.RedisURI, "redis://"),
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	return "mongodb://****:****@" + uri[at+1:]
}

// EnsureIndexes creates required indexes if they don't exist. It is called
// on startup and again by tests after swapping in test collections.
func EnsureIndexes() error {
	logger := logging.Logger.Unwrap().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureUserIndexes(ctx, logger); err != nil {
		return err
	}
	if err := ensureVerificationSessionIndexes(ctx, logger); err != nil {
		return err
	}
	if err := ensureVehicleIndexes(ctx, logger); err != nil {
		return err
	}
	if err := ensureAuditLogIndexes(ctx, logger); err != nil {
		return err
	}

	logger.Info("all required indexes ensured")
	return nil
}

// ensureUserIndexes enforces account uniqueness and supports the referral
// leveling queries (children of a sponsor at or above a given level).
func ensureUserIndexes(ctx context.Context, logger *zap.Logger) error {
	coll := MongoDB.Collection(AppConfig.UserCollection)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetName("phone_number_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sponsor_id", Value: 1}},
			Options: options.Index().SetName("sponsor_id_1").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "sponsor_by", Value: 1},
				{Key: "level", Value: 1},
			},
			Options: options.Index().SetName("sponsor_by_1_level_1"),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("failed to create user indexes", zap.Error(err))
		return err
	}
	return nil
}

// ensureVerificationSessionIndexes enforces one live session per email and
// lets Mongo expire abandoned sessions on its own.
func ensureVerificationSessionIndexes(ctx context.Context, logger *zap.Logger) error {
	coll := MongoDB.Collection(AppConfig.VerificationSessionCollection)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("session_id_1").SetUnique(true),
		},
		{
			// TTL index: expire the moment expires_at passes (sweep permitting)
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("expires_at_1").SetExpireAfterSeconds(0),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("failed to create verification session indexes", zap.Error(err))
		return err
	}
	return nil
}

func ensureVehicleIndexes(ctx context.Context, logger *zap.Logger) error {
	coll := MongoDB.Collection(AppConfig.VehicleCollection)

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_1"),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("failed to create vehicle indexes", zap.Error(err))
		return err
	}
	return nil
}

func ensureAuditLogIndexes(ctx context.Context, logger *zap.Logger) error {
	coll := MongoDB.Collection(AppConfig.AuditLogCollection)

	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("user_id_1_timestamp_-1"),
		},
		{
			// Keep audit logs for one year
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("timestamp_ttl").SetExpireAfterSeconds(365 * 24 * 3600),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("failed to create audit log indexes", zap.Error(err))
		return err
	}
	return nil
}
