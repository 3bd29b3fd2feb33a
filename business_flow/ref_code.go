package businessflow

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// MaxRefCodeAttempts bounds regeneration after unique-index collisions
const MaxRefCodeAttempts = 5

const refCodeBytes = 9

// GenerateRefCode returns a 12 character URL-safe reference code
func GenerateRefCode() (string, error) {
	buf := make([]byte, refCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
