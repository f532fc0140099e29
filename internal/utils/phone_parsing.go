package utils

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone validates a phone number and returns its E.164 form.
// Numbers must carry a country code; a bare national number is rejected so
// the unique phone index never stores two spellings of the same number.
func NormalizePhone(phoneString string) (string, error) {
	cleanPhone := strings.TrimSpace(phoneString)
	if cleanPhone == "" {
		return "", fmt.Errorf("phone number is required")
	}

	if !strings.HasPrefix(cleanPhone, "+") {
		// Tolerate numbers submitted with a leading 00 international prefix
		if strings.HasPrefix(cleanPhone, "00") {
			cleanPhone = "+" + cleanPhone[2:]
		} else {
			return "", fmt.Errorf("phone number must include a country code: %s", phoneString)
		}
	}

	num, err := phonenumbers.Parse(cleanPhone, "")
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number: %s", phoneString)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
