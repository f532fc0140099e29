package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", models.NewValidationError("email", "is invalid"), http.StatusBadRequest},
		{"upstream error", &models.UpstreamError{Collaborator: "storage", Err: errors.New("boom")}, http.StatusBadGateway},
		{"session not found", models.ErrSessionNotFound, http.StatusNotFound},
		{"user not found", models.ErrUserNotFound, http.StatusNotFound},
		{"vehicle not found", models.ErrVehicleNotFound, http.StatusNotFound},
		{"session expired", models.ErrSessionExpired, http.StatusGone},
		{"reset code expired", models.ErrResetOTPExpired, http.StatusGone},
		{"invalid otp", models.ErrInvalidOTP, http.StatusBadRequest},
		{"duplicate account", models.ErrDuplicateAccount, http.StatusConflict},
		{"invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized},
		{"revoked token", models.ErrTokenRevoked, http.StatusUnauthorized},
		{"permission denied", models.ErrPermissionDenied, http.StatusForbidden},
		{"rate limited", models.ErrRateLimited, http.StatusTooManyRequests},
		{"unknown error", errors.New("something broke"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRespondError_WrappedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.Join(errors.New("load failed"), models.ErrUserNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.New("mongo: connection pool exhausted"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo")
}
