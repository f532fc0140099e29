package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitKYC1Endpoint_Validation(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	user := insertTestUser(t, models.RoleCustomer, models.KYCLevelNone)
	router := setupTestRouter(customerClaims(user.ID.Hex()))

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing everything", url.Values{}},
		{"single word name", url.Values{"full_name": {"Ada"}, "country": {"Nigeria"}}},
		{"missing country", url.Values{"full_name": {"Ada Obi"}}},
		{"missing documents", url.Values{"full_name": {"Ada Obi"}, "country": {"Nigeria"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performForm(router, http.MethodPost, "/v1/kyc/level1", tt.form.Encode())
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSubmitKYC1Endpoint_Unauthenticated(t *testing.T) {
	setupTestEnvironment()
	router := setupTestRouter(nil)

	w := performForm(router, http.MethodPost, "/v1/kyc/level1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestUploadLicenseEndpoint_Gated(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	user := insertTestUser(t, models.RoleCustomer, models.KYCLevelNone)
	router := setupTestRouter(customerClaims(user.ID.Hex()))

	w := performForm(router, http.MethodPost, "/v1/kyc/license", "")
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestUploadLicenseEndpoint_MissingFile(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	user := insertTestUser(t, models.RoleCustomer, models.KYCLevelIdentity)
	router := setupTestRouter(customerClaims(user.ID.Hex()))

	w := performForm(router, http.MethodPost, "/v1/kyc/license", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestVehicleDecisionEndpoint(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	user := insertTestUser(t, models.RoleCustomer, models.KYCLevelLicense)
	router := setupTestRouter(customerClaims(user.ID.Hex()))

	w := performJSON(router, http.MethodPost, "/v1/kyc/vehicle-decision", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = performJSON(router, http.MethodPost, "/v1/kyc/vehicle-decision", `{"has_vehicle": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp VehicleDecisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsVehicle)
	assert.Nil(t, resp.Credential)

	w = performJSON(router, http.MethodPost, "/v1/kyc/vehicle-decision", `{"has_vehicle": false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.NeedsVehicle)
	require.NotNil(t, resp.Credential)
	assert.NotEmpty(t, resp.Credential.Token)
}

func TestVehicleDecisionEndpoint_Gated(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	user := insertTestUser(t, models.RoleCustomer, models.KYCLevelIdentity)
	router := setupTestRouter(customerClaims(user.ID.Hex()))

	w := performJSON(router, http.MethodPost, "/v1/kyc/vehicle-decision", `{"has_vehicle": true}`)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}
