package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// levelsync walks the whole sponsor network and reapplies the promotion rule
// until no node moves. Run it after restoring a backup or fixing records by
// hand; normal admissions keep levels current on their own.
func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal("failed to load config: ", err)
	}

	if err := logging.InitLogger(); err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	logger := logging.Logger

	logger.Info("starting sponsor level sync")

	config.InitMongoDB()
	config.InitRedis()

	services.InitReferralService()
	referral := services.ReferralServiceInstance

	ctx := context.Background()
	users := config.MongoDB.Collection(config.AppConfig.UserCollection)

	start := time.Now()
	totalPromotions := 0

	// Each pass can promote a node at most one level, so the network
	// converges within the level cap.
	for pass := 1; pass <= models.MaxSponsorLevel; pass++ {
		promotions, err := runPass(ctx, referral, users)
		if err != nil {
			logger.Fatal("level sync pass failed", zap.Int("pass", pass), zap.Error(err))
		}

		logger.Info("level sync pass completed",
			zap.Int("pass", pass),
			zap.Int("promotions", promotions))

		totalPromotions += promotions
		if promotions == 0 {
			break
		}
	}

	logger.Info("sponsor level sync finished",
		zap.Int("total_promotions", totalPromotions),
		zap.Duration("elapsed", time.Since(start)))
}

func runPass(ctx context.Context, referral *services.ReferralService, users *mongo.Collection) (int, error) {
	opts := options.Find().SetProjection(bson.M{"sponsor_id": 1})
	cursor, err := users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	promotions := 0
	for cursor.Next(ctx) {
		var node struct {
			SponsorID string `bson:"sponsor_id"`
		}
		if err := cursor.Decode(&node); err != nil {
			return promotions, err
		}
		if node.SponsorID == "" {
			continue
		}

		promoted, err := referral.RecomputeUser(ctx, node.SponsorID)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				continue
			}
			return promotions, err
		}
		if promoted {
			promotions++
		}
	}

	return promotions, cursor.Err()
}
