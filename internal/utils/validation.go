package utils

import (
	"regexp"
	"strings"

	"github.com/ridelinkhq/onboarding-api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SanitizeString removes leading and trailing whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique index always see one canonical form
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalized email address
func ValidateEmail(email string) error {
	if email == "" {
		return models.NewValidationError("email", "email is required")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return models.NewValidationError("email", "invalid email address")
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if len(domain) > 253 || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return models.NewValidationError("email", "invalid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return models.NewValidationError("password", "password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return models.NewValidationError("password", "password must not exceed 72 characters")
	}
	return nil
}
