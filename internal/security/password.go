package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor used for passwords and join keys.
const hashCost = 10

// HashSecret returns a salted bcrypt hash of secret. The salt is embedded
// in the hash output, so two calls on the same secret produce different
// hashes.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), hashCost)
	if err != nil {
		return "", fmt.Errorf("security: hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether secret matches the stored bcrypt hash.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
