package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckEndpoint(t *testing.T) {
	setupTestEnvironment()
	if config.MongoDB == nil {
		t.Skip("Skipping: MongoDB not available")
	}
	requireRedis(t)

	router := setupTestRouter(nil)
	w := performJSON(router, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["mongodb"])
	assert.Equal(t, "healthy", resp.Services["redis"])
	assert.False(t, resp.Timestamp.IsZero())
}
