package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/middleware"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SignupRequest is the payload starting a verification session
type SignupRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Gender      string `json:"gender"`
	SponsorBy   string `json:"sponsor_by"`
}

// SignupResponse returns the opaque session identifier to be confirmed
type SignupResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ResendOTPRequest identifies the session whose code should be resent
type ResendOTPRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// VerifyOTPRequest confirms a session with its one-time code
type VerifyOTPRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	OTP       string `json:"otp" binding:"required"`
}

// AuthResponse carries the user and their fresh credential
type AuthResponse struct {
	User       *models.User         `json:"user"`
	Credential *services.Credential `json:"credential"`
}

// LoginRequest is the email/password login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a password reset code
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest exchanges a reset code for a new password
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Signup godoc
// @Summary Start registration
// @Description Starts an OTP-gated registration session and mails the verification code. Signing up again with the same email replaces the pending session.
// @Tags auth
// @Accept json
// @Produce json
// @Param data body SignupRequest true "Registration details"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/signup [post]
func Signup(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "Signup")
	defer span.End()

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	sessionID, err := services.VerificationServiceInstance.BeginSession(ctx, services.SignupInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Gender:      req.Gender,
		SponsorBy:   req.SponsorBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		SessionID: sessionID,
		Message:   "verification code sent",
	})
}

// ResendOTP godoc
// @Summary Resend verification code
// @Description Regenerates the OTP for a pending session and restarts its expiry window
// @Tags auth
// @Accept json
// @Produce json
// @Param data body ResendOTPRequest true "Session identifier"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/resend-otp [post]
func ResendOTP(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "ResendOTP")
	defer span.End()

	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := services.VerificationServiceInstance.Resend(ctx, req.SessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "verification code resent"})
}

// VerifyOTP godoc
// @Summary Confirm registration
// @Description Confirms the OTP, creates the verified user, links them into the referral network and issues a credential
// @Tags auth
// @Accept json
// @Produce json
// @Param data body VerifyOTPRequest true "Session identifier and code"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/verify-otp [post]
func VerifyOTP(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "VerifyOTP")
	defer span.End()
	span.SetAttributes(attribute.String("operation", "verify_otp"))

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := services.VerificationServiceInstance.Consume(ctx, req.SessionID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		User:       user,
		Credential: attachCredential(c, user),
	})
}

// Login godoc
// @Summary Log in
// @Description Authenticates an email/password pair and issues a credential
// @Tags auth
// @Accept json
// @Produce json
// @Param data body LoginRequest true "Login details"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func Login(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "Login")
	defer span.End()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := services.AccountServiceInstance.Login(ctx, req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:       user,
		Credential: attachCredential(c, user),
	})
}

// ForgotPassword godoc
// @Summary Request password reset
// @Description Sends a reset code to the given email when an account exists. The response is identical either way.
// @Tags auth
// @Accept json
// @Produce json
// @Param data body ForgotPasswordRequest true "Account email"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/forgot-password [post]
func ForgotPassword(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "ForgotPassword")
	defer span.End()

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := services.AccountServiceInstance.ForgotPassword(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "if the account exists, a reset code has been sent"})
}

// ResetPassword godoc
// @Summary Reset password
// @Description Exchanges a valid reset code for a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param data body ResetPasswordRequest true "Email, reset code and new password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/reset-password [post]
func ResetPassword(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "ResetPassword")
	defer span.End()

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := services.AccountServiceInstance.ResetPassword(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "password updated"})
}

// Logout godoc
// @Summary Log out
// @Description Revokes the presented credential until its natural expiry and clears the session cookie
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "Logout")
	defer span.End()

	tokenValue, _ := c.Get(middleware.TokenKey)
	token, _ := tokenValue.(string)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	expiresAt, tokenID, err := services.TokenServiceInstance.ExpiryOf(token)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := services.TokenServiceInstance.Revoke(ctx, tokenID, expiresAt); err != nil {
		observability.Logger().Error("failed to revoke credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to log out"})
		return
	}

	secure := config.AppConfig.Environment == "production"
	c.SetCookie(middleware.CredentialCookie, "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}
