package auth

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"

	"userflow-backend/internal/shared"
)

// HashPassword derives a salted bcrypt hash for storage. Plaintext passwords
// never reach the record store.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate against the stored hash, failing closed
// with shared.ErrUnauthorized on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return shared.ErrUnauthorized
	}
	return nil
}

// RandomPasswordHash returns a hash of random bytes for OAuth-created
// accounts, which have no usable password by construction.
func RandomPasswordHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return HashPassword(base64.RawURLEncoding.EncodeToString(buf))
}
