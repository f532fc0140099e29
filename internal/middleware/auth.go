package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.uber.org/zap"
)

const (
	// ClaimsKey is the gin context key holding the validated claims
	ClaimsKey = "claims"
	// TokenKey is the gin context key holding the raw bearer token
	TokenKey = "token"

	// CredentialCookie is the cookie carrying the session credential
	CredentialCookie = "session_token"
)

// bearerToken pulls the credential from the Authorization header, falling
// back to the session cookie set on every successful mutation.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(CredentialCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware validates the request credential and stores its claims in
// the context. Revoked credentials are rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := services.TokenServiceInstance.Validate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, models.ErrInvalidCredentials) && !errors.Is(err, models.ErrTokenRevoked) {
				observability.Logger().Error("credential validation failed", zap.Error(err))
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired credential"})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// RequireDriver checks that the authenticated user holds the driver role
func RequireDriver() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.Role != models.RoleDriver {
			c.JSON(http.StatusForbidden, gin.H{"error": "driver role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the validated claims stored by AuthMiddleware,
// or nil when the request is unauthenticated
func ClaimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
