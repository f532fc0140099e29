package observability

import (
	"strings"

	"github.com/ridelinkhq/onboarding-api/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskEmail masks the local part of an email address for logging
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "****"
	}
	local := email[:at]
	if len(local) <= 2 {
		return "**" + email[at:]
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + email[at:]
}

// MaskPhone masks a phone number, keeping the country code and last two digits
func MaskPhone(phone string) string {
	if len(phone) < 6 {
		return "****"
	}
	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}

// MaskSensitiveData masks sensitive fields in a map before logging
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	sensitiveFields := []string{"password", "otp", "reset_otp", "email", "phone_number"}
	masked := make(map[string]interface{})

	for k, v := range data {
		if contains(sensitiveFields, k) {
			masked[k] = "********"
		} else {
			masked[k] = v
		}
	}

	return masked
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
