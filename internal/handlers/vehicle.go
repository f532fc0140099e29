package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.opentelemetry.io/otel"
)

// VehicleResponse carries a vehicle record and the refreshed credential
type VehicleResponse struct {
	Vehicle    *models.Vehicle      `json:"vehicle"`
	Credential *services.Credential `json:"credential,omitempty"`
}

// vehicleInputFromForm reads the optional vehicle fields and artifacts from a
// multipart form. Absent fields stay nil.
func vehicleInputFromForm(c *gin.Context) (services.VehicleInput, error) {
	input := services.VehicleInput{
		ExteriorImage:   formFile(c, "exterior_image"),
		InteriorImage:   formFile(c, "interior_image"),
		InsuranceDoc:    formFile(c, "insurance_doc"),
		RegistrationDoc: formFile(c, "registration_doc"),
	}

	optional := func(name string) *string {
		if value, ok := c.GetPostForm(name); ok && value != "" {
			return &value
		}
		return nil
	}

	input.PlateNumber = optional("plate_number")
	input.Make = optional("make")
	input.Model = optional("model")
	input.ChassisNumber = optional("chassis_number")
	input.Color = optional("color")
	input.VehicleType = optional("vehicle_type")

	if raw := optional("registration_expiry"); raw != nil {
		expiry, err := time.Parse(time.RFC3339, *raw)
		if err != nil {
			// Accept a bare date as well
			expiry, err = time.Parse("2006-01-02", *raw)
			if err != nil {
				return input, models.NewValidationError("registration_expiry", "must be an RFC3339 timestamp or YYYY-MM-DD date")
			}
		}
		input.RegistrationExpiry = &expiry
	}

	return input, nil
}

// RegisterVehicle godoc
// @Summary Register a vehicle
// @Description Creates a vehicle record for a level-2 user and grants the driver role. Every field is optional; a placeholder vehicle may be filled in later via update.
// @Tags vehicles
// @Accept multipart/form-data
// @Produce json
// @Param plate_number formData string false "Plate number"
// @Param make formData string false "Make"
// @Param model formData string false "Model"
// @Param chassis_number formData string false "Chassis number"
// @Param color formData string false "Color"
// @Param vehicle_type formData string false "Vehicle type"
// @Param registration_expiry formData string false "Registration expiry (RFC3339 or YYYY-MM-DD)"
// @Param exterior_image formData file false "Exterior image"
// @Param interior_image formData file false "Interior image"
// @Param insurance_doc formData file false "Insurance document"
// @Param registration_doc formData file false "Registration document"
// @Security BearerAuth
// @Success 201 {object} VehicleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /vehicles [post]
func RegisterVehicle(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "RegisterVehicle")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input, err := vehicleInputFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	vehicle, err := services.KYCServiceInstance.RegisterVehicle(ctx, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := VehicleResponse{Vehicle: vehicle}
	if user, err := services.AccountServiceInstance.GetCurrentUser(ctx, userID); err == nil {
		resp.Credential = attachCredential(c, user)
	}

	c.JSON(http.StatusCreated, resp)
}

// UpdateVehicle godoc
// @Summary Update a vehicle
// @Description Applies a partial update to a vehicle owned by the caller, with the same full optionality as registration
// @Tags vehicles
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Vehicle ID"
// @Security BearerAuth
// @Success 200 {object} VehicleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /vehicles/{id} [put]
func UpdateVehicle(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "UpdateVehicle")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input, err := vehicleInputFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	vehicle, err := services.KYCServiceInstance.UpdateVehicle(ctx, userID, c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := VehicleResponse{Vehicle: vehicle}
	if user, err := services.AccountServiceInstance.GetCurrentUser(ctx, userID); err == nil {
		resp.Credential = attachCredential(c, user)
	}

	c.JSON(http.StatusOK, resp)
}

// GetUserVehicleInfo godoc
// @Summary Get user and vehicle info
// @Description Returns the authenticated user together with all their vehicle records
// @Tags vehicles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.UserVehicleInfo
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me/vehicles [get]
func GetUserVehicleInfo(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetUserVehicleInfo")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	info, err := services.AccountServiceInstance.GetUserVehicleInfo(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
