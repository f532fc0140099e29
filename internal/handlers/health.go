package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// HealthCheck godoc
// @Summary Health check
// @Description Checks the API and its dependencies (MongoDB and Redis) and reports per-service status
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "All services healthy"
// @Failure 503 {object} HealthResponse "One or more services unavailable"
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HealthCheck")
	defer span.End()

	services := map[string]string{
		"mongodb": "healthy",
		"redis":   "healthy",
	}
	status := http.StatusOK

	if err := config.MongoDB.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		observability.Logger().Error("mongodb health check failed", zap.Error(err))
		services["mongodb"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if err := config.Redis.Ping(ctx).Err(); err != nil {
		observability.Logger().Error("redis health check failed", zap.Error(err))
		services["redis"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
	})
}
