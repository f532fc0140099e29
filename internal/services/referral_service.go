package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReferralService maintains the sponsor network: the cached child lists and
// the derived per-user level, recomputed bottom-up on every admission.
//
// Levels are monotonic and fully derived from the subtree shape, so every
// write here is a level-guarded conditional update. A concurrent admission
// racing on the same node makes the guard miss and the node is re-read
// instead of double-promoted.
type ReferralService struct {
	database *mongo.Database
	logger   *logging.SafeLogger
}

// NewReferralService creates a new referral service instance
func NewReferralService(database *mongo.Database, logger *logging.SafeLogger) *ReferralService {
	return &ReferralService{
		database: database,
		logger:   logger,
	}
}

// Global referral service instance
var ReferralServiceInstance *ReferralService

// InitReferralService initializes the global referral service instance
func InitReferralService() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("referral_service"))

	ReferralServiceInstance = NewReferralService(config.MongoDB, logger)

	logger.Info("referral service initialized successfully")
}

func (s *ReferralService) users() *mongo.Collection {
	return s.database.Collection(config.AppConfig.UserCollection)
}

// RecordAdmission links a newly admitted user into their sponsor's child list
// and recomputes levels up the sponsor chain. Root-sponsored users trigger no
// recomputation.
func (s *ReferralService) RecordAdmission(ctx context.Context, child *models.User) error {
	if child.SponsorBy == "" || child.SponsorBy == models.SponsorRoot {
		return nil
	}

	logger := s.logger.With(
		zap.String("child_id", child.ID.Hex()),
		zap.String("sponsor_by", child.SponsorBy),
	)

	// $addToSet keeps the child list consistent if the admission is retried
	result, err := s.users().UpdateOne(ctx,
		bson.M{"sponsor_id": child.SponsorBy},
		bson.M{"$addToSet": bson.M{"sponsor_tree": child.ID}},
	)
	if err != nil {
		return fmt.Errorf("failed to link child to sponsor: %w", err)
	}
	if result.MatchedCount == 0 {
		// Sponsor vanished between signup validation and admission; the
		// child keeps its code and the network simply has no edge here.
		logger.Warn("sponsor not found at admission")
		return nil
	}

	return s.recomputeFrom(ctx, child.SponsorBy)
}

// RecomputeUser applies the promotion rule to a single user. Exposed for
// repair jobs and tests; RecordAdmission drives it during normal operation.
func (s *ReferralService) RecomputeUser(ctx context.Context, sponsorID string) (promoted bool, err error) {
	var node models.User
	if err := s.users().FindOne(ctx, bson.M{"sponsor_id": sponsorID}).Decode(&node); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, models.ErrUserNotFound
		}
		return false, fmt.Errorf("failed to load sponsor node: %w", err)
	}
	return s.evaluateNode(ctx, &node)
}

// recomputeFrom walks the sponsor chain upward starting at the given code,
// evaluating the promotion rule at each node. The walk is iterative, bounded
// by the network population, and keeps a visited set so a malformed cycle
// converges instead of looping.
func (s *ReferralService) recomputeFrom(ctx context.Context, startCode string) error {
	maxDepth, err := s.users().CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to bound leveling walk: %w", err)
	}

	visited := make(map[string]bool)
	code := startCode

	for depth := int64(0); depth < maxDepth; depth++ {
		if code == "" || code == models.SponsorRoot {
			return nil
		}
		if visited[code] {
			s.logger.Warn("sponsor chain cycle detected, treating as converged",
				zap.String("sponsor_id", code))
			return nil
		}
		visited[code] = true

		var node models.User
		if err := s.users().FindOne(ctx, bson.M{"sponsor_id": code}).Decode(&node); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			return fmt.Errorf("failed to load sponsor node: %w", err)
		}

		if _, err := s.evaluateNode(ctx, &node); err != nil {
			return err
		}

		code = node.SponsorBy
	}

	return nil
}

// evaluateNode applies the promotion rule at one node: if at least three
// direct children have reached the node's current level, the node advances
// one level, capped at MaxSponsorLevel. The level-guarded filter is the
// per-node compare-and-swap; a racing promotion makes it miss and the node
// is re-read once before giving up the attempt.
func (s *ReferralService) evaluateNode(ctx context.Context, node *models.User) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if node.Level >= models.MaxSponsorLevel {
			return false, nil
		}

		qualifying, err := utils.CountDocumentsWithTimeout(ctx, s.users(), bson.M{
			"sponsor_by": node.SponsorID,
			"level":      bson.M{"$gte": node.Level},
		}, utils.DefaultQueryTimeout)
		if err != nil {
			return false, fmt.Errorf("failed to count qualifying children: %w", err)
		}
		if qualifying < 3 {
			return false, nil
		}

		result, err := utils.UpdateOneWithTimeout(ctx, s.users(),
			bson.M{"_id": node.ID, "level": node.Level},
			bson.M{"$inc": bson.M{"level": 1}},
			utils.DefaultQueryTimeout,
		)
		if err != nil {
			return false, fmt.Errorf("failed to promote sponsor: %w", err)
		}
		if result.ModifiedCount == 1 {
			newLevel := node.Level + 1
			node.Level = newLevel
			observability.SponsorPromotions.WithLabelValues(strconv.Itoa(newLevel)).Inc()
			s.logger.Info("sponsor promoted",
				zap.String("sponsor_id", node.SponsorID),
				zap.Int("level", newLevel))

			if err := utils.InvalidateUserCache(ctx, node.ID.Hex()); err != nil {
				s.logger.Warn("failed to invalidate promoted user cache", zap.Error(err))
			}
			return true, nil
		}

		// Guard missed: someone else moved this node. Re-read and
		// re-evaluate against the fresh level.
		if err := s.users().FindOne(ctx, bson.M{"_id": node.ID}).Decode(node); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return false, nil
			}
			return false, fmt.Errorf("failed to reload sponsor node: %w", err)
		}
	}

	return false, nil
}
