package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Mail templates understood by the relay
const (
	MailTemplateVerificationCode = "verification_code"
	MailTemplatePasswordReset    = "password_reset"
	MailTemplateWelcome          = "welcome"
)

type mailAuthResponse struct {
	Data struct {
		Item struct {
			Token      string `json:"token"`
			Expiration int64  `json:"expiration"`
		} `json:"item"`
	} `json:"data"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type mailRequest struct {
	From     string                 `json:"from"`
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Vars     map[string]interface{} `json:"vars"`
}

type mailErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Mailer sends transactional mail through the relay service. Sends are
// best-effort: callers log failures but never roll back the mutation that
// triggered the mail.
type Mailer struct {
	pool   *httpclient.Pool
	logger *logging.SafeLogger
}

// NewMailer creates a new mailer instance
func NewMailer(logger *logging.SafeLogger) *Mailer {
	return &Mailer{
		pool:   httpclient.NewPool(10, config.AppConfig.MailerTimeout),
		logger: logger,
	}
}

// Global mailer instance
var MailerInstance *Mailer

// InitMailer initializes the global mailer instance
func InitMailer() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("mailer"))

	MailerInstance = NewMailer(logger)

	logger.Info("mailer initialized successfully")
}

// authToken gets a relay API token, using Redis for caching
func (m *Mailer) authToken(ctx context.Context) (string, error) {
	logger := m.logger.With(zap.String("operation", "mailer_auth_token"))

	cacheKey := "mailer:token"
	token, err := config.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		observability.CacheHits.WithLabelValues("mailer_token").Inc()
		return token, nil
	}

	authURL := fmt.Sprintf("%s/users/login", config.AppConfig.MailerBaseURL)
	authBody := map[string]string{
		"username": config.AppConfig.MailerUsername,
		"password": config.AppConfig.MailerPassword,
	}

	jsonBody, err := json.Marshal(authBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	client := m.pool.Get()
	defer m.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("failed to send auth request", zap.Error(err))
		return "", fmt.Errorf("failed to send auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request failed with status: %d", resp.StatusCode)
	}

	var authResp mailAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	// Cache the token with a TTL slightly shorter than its expiration
	expiresAt := time.Unix(0, authResp.Data.Item.Expiration*int64(time.Millisecond))
	ttl := time.Until(expiresAt) - time.Minute
	if ttl > 0 {
		if err := config.Redis.Set(ctx, cacheKey, authResp.Data.Item.Token, ttl).Err(); err != nil {
			logger.Warn("failed to cache mailer token", zap.Error(err))
		}
	}

	return authResp.Data.Item.Token, nil
}

// Send sends a templated mail to a single recipient. The context is bounded
// by the configured mailer timeout so a slow relay cannot stall request
// handling.
func (m *Mailer) Send(ctx context.Context, to, template string, vars map[string]interface{}) error {
	logger := m.logger.With(
		zap.String("to", observability.MaskEmail(to)),
		zap.String("template", template),
	)

	if !config.AppConfig.MailerEnabled {
		logger.Debug("mailer is disabled, skipping send")
		observability.OutboundMail.WithLabelValues(template, "skipped").Inc()
		return nil
	}

	if MailRateLimiterInstance != nil && !MailRateLimiterInstance.Allow(ctx, "mail_send") {
		observability.OutboundMail.WithLabelValues(template, "throttled").Inc()
		return fmt.Errorf("outbound mail rate limit exceeded")
	}

	ctx, cancel := context.WithTimeout(ctx, config.AppConfig.MailerTimeout)
	defer cancel()

	token, err := m.authToken(ctx)
	if err != nil {
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to get mailer auth token: %w", err)
	}

	msgReq := mailRequest{
		From:     config.AppConfig.MailerFrom,
		To:       to,
		Template: template,
		Vars:     vars,
	}

	jsonBody, err := json.Marshal(msgReq)
	if err != nil {
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/mail/send", config.AppConfig.MailerBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")

	client := m.pool.Get()
	defer m.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("failed to send mail request", zap.Error(err))
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to read mail response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		observability.OutboundMail.WithLabelValues(template, "error").Inc()
		var errResp mailErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			logger.Error("mail request failed",
				zap.Int("status_code", resp.StatusCode),
				zap.String("error_message", errResp.Message))
			return fmt.Errorf("mail request failed: %s", errResp.Message)
		}
		logger.Error("mail request failed", zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("mail request failed with status: %d", resp.StatusCode)
	}

	observability.OutboundMail.WithLabelValues(template, "success").Inc()
	return nil
}

// SendAsync fires a mail send without blocking the caller. Failures are
// logged and counted; they never affect the triggering operation.
func (m *Mailer) SendAsync(to, template string, vars map[string]interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.MailerTimeout)
		defer cancel()

		if err := m.Send(ctx, to, template, vars); err != nil {
			m.logger.Warn("background mail send failed",
				zap.String("template", template),
				zap.Error(err))
		}
	}()
}
