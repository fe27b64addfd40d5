package auth

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const refreshHashCost = 12

// HashRefreshToken produces the bcrypt hash stored against the user's
// session. The raw token is digested with SHA-256 first because bcrypt
// only reads the first 72 bytes of its input and signed JWTs are far
// longer than that.
func HashRefreshToken(raw string) (string, error) {
	digest := sha256.Sum256([]byte(raw))
	hash, err := bcrypt.GenerateFromPassword(digest[:], refreshHashCost)
	if err != nil {
		return "", fmt.Errorf("hash refresh token: %w", err)
	}
	return string(hash), nil
}

// CompareRefreshToken reports whether the raw token matches the stored hash.
func CompareRefreshToken(hash, raw string) bool {
	digest := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword([]byte(hash), digest[:]) == nil
}
