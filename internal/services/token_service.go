package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"go.uber.org/zap"
)

// Credential is a signed bearer token together with its expiry, returned to
// clients both in the response body and as an HTTP-only cookie.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed credentials. Revocation is backed
// by a Redis denylist keyed on the token id, with entries expiring alongside
// the token itself.
type TokenService struct {
	secret []byte
	issuer string
	expiry time.Duration
	logger *logging.SafeLogger
}

// NewTokenService creates a new token service instance
func NewTokenService(secret, issuer string, expiry time.Duration, logger *logging.SafeLogger) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		logger: logger,
	}
}

// Global token service instance
var TokenServiceInstance *TokenService

// InitTokenService initializes the global token service instance
func InitTokenService() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("token_service"))

	TokenServiceInstance = NewTokenService(
		config.AppConfig.JWTSecret,
		config.AppConfig.JWTIssuer,
		config.AppConfig.JWTExpiry,
		logger,
	)

	logger.Info("token service initialized successfully")
}

func denylistKey(tokenID string) string {
	return fmt.Sprintf("auth:denylist:%s", tokenID)
}

// Issue signs a fresh credential for the given user and role
func (s *TokenService) Issue(userID, role string) (*Credential, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign credential: %w", err)
	}

	return &Credential{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a credential, rejecting revoked tokens
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !token.Valid {
		return nil, models.ErrInvalidCredentials
	}

	if config.Redis == nil {
		return &models.JWTClaims{
			UserID:  claims.Subject,
			Role:    claims.Role,
			TokenID: claims.ID,
		}, nil
	}

	revoked, err := config.Redis.Exists(ctx, denylistKey(claims.ID)).Result()
	if err != nil {
		// Redis being down must not turn every valid token into a 401, but
		// revocations cannot be checked either. Fail closed only for the
		// revocation list itself being unreadable.
		s.logger.Error("failed to check credential denylist", zap.Error(err))
		return nil, fmt.Errorf("failed to check credential denylist: %w", err)
	}
	if revoked > 0 {
		return nil, models.ErrTokenRevoked
	}

	return &models.JWTClaims{
		UserID:  claims.Subject,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}

// Revoke denylists a credential until its natural expiry
func (s *TokenService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing to deny
		return nil
	}
	if config.Redis == nil {
		return fmt.Errorf("revocation store unavailable")
	}

	if err := config.Redis.Set(ctx, denylistKey(tokenID), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}

	s.logger.Debug("credential revoked", zap.String("token_id", tokenID))
	return nil
}

// ExpiryOf reports the expiry of a parsed credential without checking the
// denylist; used by logout to size the denylist entry.
func (s *TokenService) ExpiryOf(tokenString string) (time.Time, string, error) {
	claims := &tokenClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return time.Time{}, "", models.ErrInvalidCredentials
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, "", models.ErrInvalidCredentials
	}

	return claims.ExpiresAt.Time, claims.ID, nil
}
