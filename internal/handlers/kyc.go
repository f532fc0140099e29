package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/middleware"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// VehicleDecisionRequest declares whether the driver candidate owns a vehicle
type VehicleDecisionRequest struct {
	HasVehicle *bool `json:"has_vehicle"`
}

// VehicleDecisionResponse reports the outcome of the declaration
type VehicleDecisionResponse struct {
	NeedsVehicle bool                 `json:"needs_vehicle"`
	Message      string               `json:"message"`
	Credential   *services.Credential `json:"credential,omitempty"`
}

// currentUserID returns the authenticated user's id, or aborts with 401
func currentUserID(c *gin.Context) (string, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return "", false
	}
	return claims.UserID, true
}

// formFile returns the named multipart file when present, nil when absent
func formFile(c *gin.Context, name string) *multipart.FileHeader {
	file, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return file
}

// SubmitKYC1 godoc
// @Summary Submit KYC level 1
// @Description Captures full name, country and the three identity artifacts (front document, back document, selfie) and advances the user to KYC level 1
// @Tags kyc
// @Accept multipart/form-data
// @Produce json
// @Param full_name formData string true "Full name (first and last)"
// @Param country formData string true "Country"
// @Param doc_front formData file true "Document front"
// @Param doc_back formData file true "Document back"
// @Param selfie formData file true "Selfie"
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /kyc/level1 [post]
func SubmitKYC1(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "SubmitKYC1")
	defer span.End()
	span.SetAttributes(attribute.String("operation", "submit_kyc1"))

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input := services.KYC1Input{
		FullName: c.PostForm("full_name"),
		Country:  c.PostForm("country"),
	}

	user, err := services.KYCServiceInstance.SubmitKYC1(ctx, userID, input,
		formFile(c, "doc_front"),
		formFile(c, "doc_back"),
		formFile(c, "selfie"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:       user,
		Credential: attachCredential(c, user),
	})
}

// UploadLicense godoc
// @Summary Submit KYC level 2
// @Description Captures the driving license artifact and advances a level-1 user to KYC level 2
// @Tags kyc
// @Accept multipart/form-data
// @Produce json
// @Param license formData file true "Driving license"
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /kyc/license [post]
func UploadLicense(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "UploadLicense")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := services.KYCServiceInstance.UploadLicense(ctx, userID, formFile(c, "license"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:       user,
		Credential: attachCredential(c, user),
	})
}

// VehicleDecision godoc
// @Summary Declare vehicle ownership
// @Description A level-2 user declares whether they own a vehicle. Without one they become a driver immediately; with one they are directed to vehicle registration.
// @Tags kyc
// @Accept json
// @Produce json
// @Param data body VehicleDecisionRequest true "Ownership declaration"
// @Security BearerAuth
// @Success 200 {object} VehicleDecisionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /kyc/vehicle-decision [post]
func VehicleDecision(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "VehicleDecision")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req VehicleDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	needsVehicle, err := services.KYCServiceInstance.VehicleDecision(ctx, userID, req.HasVehicle)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := VehicleDecisionResponse{NeedsVehicle: needsVehicle}
	if needsVehicle {
		resp.Message = "register your vehicle to complete driver onboarding"
	} else {
		resp.Message = "driver role granted"
		if user, err := services.AccountServiceInstance.GetCurrentUser(ctx, userID); err == nil {
			resp.Credential = attachCredential(c, user)
		}
	}

	c.JSON(http.StatusOK, resp)
}
