package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVerificationCode generates a cryptographically random 6-digit
// verification code, zero-padded.
func GenerateVerificationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// no safe fallback for a security code.
		panic(fmt.Sprintf("verification code generation failed: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}
