package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles the authentication side-channel: login, password
// reset, and the current-user read surface. None of it touches kyc_level or
// the referral network.
type AccountService struct {
	database *mongo.Database
	mailer   *Mailer
	logger   *logging.SafeLogger
}

// NewAccountService creates a new account service instance
func NewAccountService(database *mongo.Database, mailer *Mailer, logger *logging.SafeLogger) *AccountService {
	return &AccountService{
		database: database,
		mailer:   mailer,
		logger:   logger,
	}
}

// Global account service instance
var AccountServiceInstance *AccountService

// InitAccountService initializes the global account service instance
func InitAccountService() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("account_service"))

	AccountServiceInstance = NewAccountService(config.MongoDB, MailerInstance, logger)

	logger.Info("account service initialized successfully")
}

func (s *AccountService) users() *mongo.Collection {
	return s.database.Collection(config.AppConfig.UserCollection)
}

func (s *AccountService) vehicles() *mongo.Collection {
	return s.database.Collection(config.AppConfig.VehicleCollection)
}

// checkLoginRate enforces a fixed-window login attempt limit per email and
// client address. Redis being unavailable does not block logins.
func (s *AccountService) checkLoginRate(ctx context.Context, email, clientIP string) error {
	if config.Redis == nil {
		return nil
	}

	key := fmt.Sprintf("login:attempts:%s:%s", email, clientIP)

	count, err := config.Redis.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := config.Redis.Expire(ctx, key, time.Minute).Err(); err != nil {
			s.logger.Warn("failed to set rate limit window", zap.Error(err))
		}
	}
	if count > int64(config.AppConfig.LoginAttemptsPerMinute) {
		return models.ErrRateLimited
	}
	return nil
}

// Login authenticates an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password, clientIP string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	logger := s.logger.With(zap.String("email", observability.MaskEmail(email)))

	if err := s.checkLoginRate(ctx, email, clientIP); err != nil {
		return nil, err
	}

	var user models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.Debug("password mismatch")
		return nil, models.ErrInvalidCredentials
	}

	logger.Info("login succeeded", zap.String("user_id", user.ID.Hex()))
	return &user, nil
}

// ForgotPassword stores a reset OTP for the account and mails it. The caller
// always gets the same answer whether or not the email is registered.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	logger := s.logger.With(zap.String("email", observability.MaskEmail(email)))

	otp := utils.GenerateVerificationCode()
	expires := time.Now().Add(config.AppConfig.ResetOTPTTL)

	var user models.User
	err := s.users().FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"reset_otp":         otp,
			"reset_otp_expires": expires,
			"updated_at":        time.Now(),
		}},
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// No user enumeration: swallow silently
			logger.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	s.mailer.SendAsync(email, MailTemplatePasswordReset, map[string]interface{}{
		"first_name": user.FirstName,
		"code":       otp,
		"expires_in": config.AppConfig.ResetOTPTTL.String(),
	})

	logger.Info("password reset code issued")
	return nil
}

// ResetPassword exchanges a valid reset OTP for a new password
func (s *AccountService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	email = utils.NormalizeEmail(email)

	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}

	var user models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.ResetOTP == "" || user.ResetOTPExpires == nil {
		return models.ErrInvalidOTP
	}
	if time.Now().After(*user.ResetOTPExpires) {
		return models.ErrResetOTPExpired
	}
	if user.ResetOTP != otp {
		return models.ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.users().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":   bson.M{"password": string(hash), "updated_at": time.Now()},
			"$unset": bson.M{"reset_otp": "", "reset_otp_expires": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := utils.InvalidateUserCache(ctx, user.ID.Hex()); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Error(err))
	}

	s.logger.Info("password reset completed", zap.String("user_id", user.ID.Hex()))
	return nil
}

// GetCurrentUser reads a user through the Redis cache
func (s *AccountService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	cacheKey := utils.UserCacheKey(userID)

	if config.Redis != nil {
		cached, err := config.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				observability.CacheHits.WithLabelValues("user").Inc()
				return &user, nil
			}
			// Unreadable cache entry; fall through to the database
			if err := config.Redis.Del(ctx, cacheKey).Err(); err != nil {
				s.logger.Warn("failed to drop corrupt cache entry", zap.Error(err))
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("user cache unavailable", zap.Error(err))
		}
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	var user models.User
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if config.Redis != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := config.Redis.Set(ctx, cacheKey, data, config.AppConfig.RedisTTL).Err(); err != nil {
				s.logger.Warn("failed to cache user", zap.Error(err))
			}
		}
	}

	return &user, nil
}

// UserVehicleInfo is the combined read surface for a user and their vehicles
type UserVehicleInfo struct {
	User     *models.User     `json:"user"`
	Vehicles []models.Vehicle `json:"vehicles"`
}

// GetUserVehicleInfo returns a user together with all their vehicle records
func (s *AccountService) GetUserVehicleInfo(ctx context.Context, userID string) (*UserVehicleInfo, error) {
	user, err := s.GetCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cursor, err := s.vehicles().Find(ctx, bson.M{"user_id": user.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return &UserVehicleInfo{User: user, Vehicles: vehicles}, nil
}
