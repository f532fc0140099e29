package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the pending registration payload captured at signup and held
// in the verification session until the OTP is confirmed.
type SignupInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
	Gender      string
	SponsorBy   string
}

// VerificationService owns the OTP-gated signup flow: short-lived
// verification sessions, their expiry, and the conversion of a confirmed
// session into a durable verified user.
type VerificationService struct {
	database *mongo.Database
	mailer   *Mailer
	referral *ReferralService
	logger   *logging.SafeLogger
}

// NewVerificationService creates a new verification service instance
func NewVerificationService(database *mongo.Database, mailer *Mailer, referral *ReferralService, logger *logging.SafeLogger) *VerificationService {
	return &VerificationService{
		database: database,
		mailer:   mailer,
		referral: referral,
		logger:   logger,
	}
}

// Global verification service instance
var VerificationServiceInstance *VerificationService

// InitVerificationService initializes the global verification service instance
func InitVerificationService() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("verification_service"))

	VerificationServiceInstance = NewVerificationService(
		config.MongoDB,
		MailerInstance,
		ReferralServiceInstance,
		logger,
	)

	logger.Info("verification service initialized successfully")
}

func (s *VerificationService) sessions() *mongo.Collection {
	return s.database.Collection(config.AppConfig.VerificationSessionCollection)
}

func (s *VerificationService) users() *mongo.Collection {
	return s.database.Collection(config.AppConfig.UserCollection)
}

// validateSignup normalizes and validates the signup payload, returning the
// split name parts and the normalized phone number.
func (s *VerificationService) validateSignup(input *SignupInput) (first, last, phone string, err error) {
	first, last, ok := utils.SplitFullName(input.FullName)
	if !ok {
		return "", "", "", models.NewValidationError("full_name", "full name must include first and last name")
	}

	input.Email = utils.NormalizeEmail(input.Email)
	if err := utils.ValidateEmail(input.Email); err != nil {
		return "", "", "", err
	}

	phone, err = utils.NormalizePhone(input.PhoneNumber)
	if err != nil {
		return "", "", "", models.NewValidationError("phone_number", err.Error())
	}

	if err := utils.ValidatePassword(input.Password); err != nil {
		return "", "", "", err
	}

	return first, last, phone, nil
}

// BeginSession starts (or restarts) a verification session for the given
// signup payload and dispatches the OTP by mail. A pending session for the
// same email is replaced in place so at most one session is live per email.
func (s *VerificationService) BeginSession(ctx context.Context, input SignupInput) (string, error) {
	logger := s.logger.With(zap.String("email", observability.MaskEmail(input.Email)))

	first, last, phone, err := s.validateSignup(&input)
	if err != nil {
		observability.SignupSessions.WithLabelValues("invalid").Inc()
		return "", err
	}

	// Reject identities that already completed verification
	count, err := utils.CountDocumentsWithTimeout(ctx, s.users(), bson.M{"$or": []bson.M{
		{"email": input.Email},
		{"phone_number": phone},
	}}, utils.DefaultQueryTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if count > 0 {
		observability.SignupSessions.WithLabelValues("duplicate").Inc()
		return "", models.ErrDuplicateAccount
	}

	sponsorBy := strings.TrimSpace(input.SponsorBy)
	if sponsorBy == "" {
		sponsorBy = models.SponsorRoot
	}
	if sponsorBy != models.SponsorRoot {
		n, err := utils.CountDocumentsWithTimeout(ctx, s.users(), bson.M{"sponsor_id": sponsorBy}, utils.DefaultQueryTimeout)
		if err != nil {
			return "", fmt.Errorf("failed to resolve sponsor code: %w", err)
		}
		if n == 0 {
			observability.SignupSessions.WithLabelValues("invalid").Inc()
			return "", models.NewValidationError("sponsor_by", "unknown sponsor code")
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	session := models.VerificationSession{
		Email:        input.Email,
		PhoneNumber:  phone,
		SessionID:    utils.GenerateSessionID(),
		OTP:          utils.GenerateVerificationCode(),
		FirstName:    first,
		LastName:     last,
		PasswordHash: string(passwordHash),
		Gender:       strings.TrimSpace(input.Gender),
		SponsorBy:    sponsorBy,
		CreatedAt:    now,
		ExpiresAt:    now.Add(config.AppConfig.VerificationSessionTTL),
	}

	_, err = s.sessions().ReplaceOne(ctx,
		bson.M{"email": session.Email},
		session,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store verification session: %w", err)
	}

	observability.SignupSessions.WithLabelValues("created").Inc()
	logger.Info("verification session created")

	// OTP delivery is best-effort; the session stands whether or not the
	// mail lands.
	s.mailer.SendAsync(session.Email, MailTemplateVerificationCode, map[string]interface{}{
		"first_name": session.FirstName,
		"code":       session.OTP,
		"expires_in": config.AppConfig.VerificationSessionTTL.String(),
	})

	return session.SessionID, nil
}

// Resend regenerates the OTP for a live session and restarts its expiry
// window, then redispatches the code.
func (s *VerificationService) Resend(ctx context.Context, sessionID string) error {
	otp := utils.GenerateVerificationCode()
	now := time.Now()

	var session models.VerificationSession
	err := s.sessions().FindOneAndUpdate(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"otp":        otp,
			"expires_at": now.Add(config.AppConfig.VerificationSessionTTL),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ErrSessionNotFound
		}
		return fmt.Errorf("failed to refresh verification session: %w", err)
	}

	observability.SignupSessions.WithLabelValues("resent").Inc()

	s.mailer.SendAsync(session.Email, MailTemplateVerificationCode, map[string]interface{}{
		"first_name": session.FirstName,
		"code":       session.OTP,
		"expires_in": config.AppConfig.VerificationSessionTTL.String(),
	})

	return nil
}

// Consume verifies the submitted OTP and converts the session into a durable
// verified user. The FindOneAndDelete on the session id is the commit point:
// of two racing submissions only one observes the session, so conversion is
// at-most-once.
func (s *VerificationService) Consume(ctx context.Context, sessionID, otp string) (*models.User, error) {
	logger := s.logger.With(zap.String("session_id", sessionID))

	var session models.VerificationSession
	err := s.sessions().FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load verification session: %w", err)
	}

	if session.Expired(time.Now()) {
		// The TTL monitor sweeps at minute granularity; delete eagerly so
		// the caller can sign up again immediately.
		if _, err := s.sessions().DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
			logger.Warn("failed to delete expired session", zap.Error(err))
		}
		observability.SignupSessions.WithLabelValues("expired").Inc()
		return nil, models.ErrSessionExpired
	}

	if session.OTP != otp {
		observability.SignupSessions.WithLabelValues("invalid_otp").Inc()
		return nil, models.ErrInvalidOTP
	}

	// Commit point: claim the session atomically
	err = s.sessions().FindOneAndDelete(ctx, bson.M{"session_id": sessionID, "otp": otp}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A concurrent duplicate submission won the race
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to claim verification session: %w", err)
	}

	user, err := s.createVerifiedUser(ctx, &session)
	if err != nil {
		return nil, err
	}

	if err := s.referral.RecordAdmission(ctx, user); err != nil {
		// The user exists and is verified; leveling is recomputable, so an
		// admission failure is logged rather than failing the verification.
		logger.Error("failed to record referral admission", zap.Error(err))
	}

	observability.SignupSessions.WithLabelValues("consumed").Inc()
	logger.Info("verification session consumed",
		zap.String("user_id", user.ID.Hex()))

	s.mailer.SendAsync(user.Email, MailTemplateWelcome, map[string]interface{}{
		"first_name": user.FirstName,
	})

	return user, nil
}

// createVerifiedUser inserts the durable user for a claimed session. Unique
// email/phone indexes suppress duplicates created since signup; a referral
// code collision is retried with a fresh code.
func (s *VerificationService) createVerifiedUser(ctx context.Context, session *models.VerificationSession) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		FirstName:   session.FirstName,
		LastName:    session.LastName,
		Email:       session.Email,
		PhoneNumber: session.PhoneNumber,
		Password:    session.PasswordHash,
		Gender:      session.Gender,
		IsVerified:  true,
		KYCLevel:    models.KYCLevelNone,
		Role:        models.RoleCustomer,
		SponsorBy:   session.SponsorBy,
		Level:       0,
		SponsorTree: []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt < 3; attempt++ {
		user.SponsorID = utils.GenerateReferralCode()

		result, err := s.users().InsertOne(ctx, user)
		if err == nil {
			user.ID = result.InsertedID.(primitive.ObjectID)
			return user, nil
		}

		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "sponsor_id") {
				continue
			}
			return nil, models.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return nil, fmt.Errorf("failed to allocate a unique referral code")
}
