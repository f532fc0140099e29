package config

import (
	"os"
)

// TestConfig holds configuration for E2E/smoke tests against a running API
type TestConfig struct {
	// API endpoint, e.g. "https://api.staging.ridelink.app/v1"
	BaseURL string

	// Credentials of a pre-provisioned test account, used by the flows
	// that need an authenticated session
	TestEmail    string
	TestPassword string

	// Test timeouts in seconds
	HealthCheckTimeout int
	APICallTimeout     int
}

// LoadTestConfig loads configuration from environment variables. BaseURL is
// the only hard requirement; account credentials are optional and the
// authenticated flows skip without them.
func LoadTestConfig() (*TestConfig, error) {
	baseURL := os.Getenv("TEST_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1"
	}

	return &TestConfig{
		BaseURL:            baseURL,
		TestEmail:          os.Getenv("TEST_EMAIL"),
		TestPassword:       os.Getenv("TEST_PASSWORD"),
		HealthCheckTimeout: 30,
		APICallTimeout:     10,
	}, nil
}
