package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"go.opentelemetry.io/otel"
)

// GetCurrentUser godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile, read through the cache
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me [get]
func GetCurrentUser(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetCurrentUser")
	defer span.End()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := services.AccountServiceInstance.GetCurrentUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
