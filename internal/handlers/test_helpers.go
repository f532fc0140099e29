package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/middleware"
	"github.com/ridelinkhq/onboarding-api/internal/models"
)

// injectClaims authenticates every request as the given user, standing in
// for the token middleware so handler tests do not need to mint credentials.
func injectClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, claims)
		c.Next()
	}
}

// customerClaims builds claims for a regular customer account
func customerClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleCustomer, TokenID: "test-token"}
}

// driverClaims builds claims for a fully admitted driver account
func driverClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleDriver, TokenID: "test-token"}
}

// setupTestRouter builds a router with the full v1 route table. When claims
// is non-nil the protected groups treat every request as that user; when nil
// the real auth middleware runs and unauthenticated requests get a 401.
func setupTestRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authGate := middleware.AuthMiddleware()
	if claims != nil {
		authGate = injectClaims(claims)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/health", HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", Signup)
			auth.POST("/resend-otp", ResendOTP)
			auth.POST("/verify-otp", VerifyOTP)
			auth.POST("/login", Login)
			auth.POST("/forgot-password", ForgotPassword)
			auth.POST("/reset-password", ResetPassword)
			auth.POST("/logout", authGate, Logout)
		}

		kyc := v1.Group("/kyc", authGate)
		{
			kyc.POST("/level1", SubmitKYC1)
			kyc.POST("/license", UploadLicense)
			kyc.POST("/vehicle-decision", VehicleDecision)
		}

		authed := v1.Group("", authGate)
		{
			authed.POST("/vehicles", RegisterVehicle)
			authed.PUT("/vehicles/:id", UpdateVehicle)
			authed.GET("/users/me", GetCurrentUser)
			authed.GET("/users/me/vehicles", GetUserVehicleInfo)
		}
	}

	return router
}

// performJSON sends a JSON request through the router and records the response
func performJSON(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// performForm sends a urlencoded form request through the router
func performForm(router *gin.Engine, method, url, form string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
