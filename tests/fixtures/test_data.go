package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ridelinkhq/onboarding-api/tests/config"
)

// APIClient wraps an HTTP client with the base URL and optional credential
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// NewAPIClient creates a new API client for testing
func NewAPIClient(cfg *config.TestConfig, token string) *APIClient {
	return &APIClient{
		BaseURL: cfg.BaseURL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.APICallTimeout) * time.Second,
		},
		Token: token,
	}
}

// Login authenticates with the configured test account and stores the
// returned credential on the client.
func (c *APIClient) Login(email, password string) error {
	resp, err := c.Post("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed with status %d: %s", resp.StatusCode, string(body))
	}

	var loginResp struct {
		Credential struct {
			Token string `json:"token"`
		} `json:"credential"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	c.Token = loginResp.Credential.Token
	return nil
}

// Get performs an authenticated GET request
func (c *APIClient) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// Post performs an authenticated POST request with a JSON body
func (c *APIClient) Post(path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// Put performs an authenticated PUT request with a JSON body
func (c *APIClient) Put(path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("PUT", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// TestSignupData represents a signup payload for smoke testing
type TestSignupData struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	SponsorBy   string `json:"sponsor_by,omitempty"`
}

// GetTestSignupData returns a signup payload with a unique email and phone
func GetTestSignupData() *TestSignupData {
	suffix := time.Now().UnixNano() % 10000000
	return &TestSignupData{
		FullName:    "Smoke Tester",
		Email:       fmt.Sprintf("smoke%d@example.com", suffix),
		PhoneNumber: fmt.Sprintf("+234803%07d", suffix),
		Password:    "Sm0keTestPass",
	}
}
