package entities

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateAccessToken returns an unguessable token for a private pot.
// Two random v4 UUIDs give 244 bits of entropy.
func GenerateAccessToken() (string, error) {
	first, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	second, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return strings.ReplaceAll(first.String()+second.String(), "-", ""), nil
}

// ConstantTimeEqual compares two tokens without leaking timing
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
