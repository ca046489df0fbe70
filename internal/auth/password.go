package auth

import (
	"golang.org/x/crypto/bcrypt"

	"shopauth/pkg/apperrors"
)

// bcryptCost is intentionally above the library default: hashing should
// stay slow enough to resist offline brute force.
const bcryptCost = 12

const minPasswordLength = 8

// HashPassword produces a salted bcrypt hash of the plaintext.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash verifies a plaintext against a stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the password policy on mutations.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.ErrWeakPassword
	}
	return nil
}
