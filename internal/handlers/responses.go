package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/middleware"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON envelope for every failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the JSON envelope for mutations with no payload
type SuccessResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports the API and its dependencies
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// respondError translates a domain error into its HTTP status and stable
// message. Unknown errors become a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
		return
	}

	var upstreamErr *models.UpstreamError
	if errors.As(err, &upstreamErr) {
		observability.Logger().Error("upstream collaborator failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream service failure"})
		return
	}

	switch {
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrVehicleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrSessionExpired),
		errors.Is(err, models.ErrResetOTPExpired):
		c.JSON(http.StatusGone, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrDuplicateAccount):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
	default:
		observability.Logger().Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// attachCredential issues a fresh credential for the user and delivers it
// both as a response field and as an HTTP-only cookie whose max-age matches
// the credential validity. Every successful mutation reissues one.
func attachCredential(c *gin.Context, user *models.User) *services.Credential {
	credential, err := services.TokenServiceInstance.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		observability.Logger().Error("failed to issue credential", zap.Error(err))
		return nil
	}

	secure := config.AppConfig.Environment == "production"
	c.SetCookie(
		middleware.CredentialCookie,
		credential.Token,
		int(time.Until(credential.ExpiresAt).Seconds()),
		"/",
		"",
		secure,
		true,
	)

	return credential
}
