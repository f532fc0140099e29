package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID generates an opaque verification session identifier
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateReferralCode generates a short uppercase referral code. Collisions
// are caught by the unique sponsor_id index and retried by the caller.
func GenerateReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
