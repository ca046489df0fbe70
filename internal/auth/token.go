package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken returns a 64-character hex string from 32 bytes of
// cryptographically secure randomness. Used for the single-use password
// reset and email verification grants.
func GenerateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
