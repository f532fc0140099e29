package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Backfills referral codes for accounts imported without one. Safe to re-run;
// users that already carry a code are left untouched.
func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal("failed to load config: ", err)
	}

	config.InitMongoDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users := config.MongoDB.Collection(config.AppConfig.UserCollection)

	cursor, err := users.Find(ctx, bson.M{"$or": []bson.M{
		{"sponsor_id": ""},
		{"sponsor_id": bson.M{"$exists": false}},
	}})
	if err != nil {
		log.Fatal("failed to query users: ", err)
	}
	defer cursor.Close(ctx)

	assigned := 0
	for cursor.Next(ctx) {
		var user struct {
			ID interface{} `bson:"_id"`
		}
		if err := cursor.Decode(&user); err != nil {
			log.Fatal("failed to decode user: ", err)
		}

		// Retry on the rare collision with an existing code
		var lastErr error
		for attempt := 0; attempt < 3; attempt++ {
			code := utils.GenerateReferralCode()
			_, lastErr = users.UpdateOne(ctx,
				bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{"sponsor_id": code, "updated_at": time.Now()}})
			if lastErr == nil || !mongo.IsDuplicateKeyError(lastErr) {
				break
			}
		}
		if lastErr != nil {
			log.Fatalf("failed to assign referral code to %v: %v", user.ID, lastErr)
		}
		assigned++
	}
	if err := cursor.Err(); err != nil {
		log.Fatal("cursor error: ", err)
	}

	fmt.Printf("assigned referral codes to %d users\n", assigned)
}
