package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	t.Run("Generates 6-digit code", func(t *testing.T) {
		code := GenerateVerificationCode()
		assert.Len(t, code, 6, "Code should be 6 digits")
	})

	t.Run("Generates only numeric characters", func(t *testing.T) {
		code := GenerateVerificationCode()
		for i, c := range code {
			assert.True(t, c >= '0' && c <= '9',
				"Character at position %d (%c) should be numeric", i, c)
		}
	})

	t.Run("Codes parse as integers in range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := GenerateVerificationCode()
			n, err := strconv.Atoi(code)
			require.NoError(t, err, "Code should be numeric: %s", code)
			assert.GreaterOrEqual(t, n, 0)
			assert.LessOrEqual(t, n, 999999)
		}
	})

	t.Run("Generates different codes", func(t *testing.T) {
		codes := make(map[string]bool)
		iterations := 50

		for i := 0; i < iterations; i++ {
			codes[GenerateVerificationCode()] = true
		}

		// With random generation, we should get at least some different codes
		assert.Greater(t, len(codes), 1,
			"Should generate different codes (got %d unique out of %d)", len(codes), iterations)
	})
}
