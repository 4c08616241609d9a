package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 32
	keyLength  = 32
	iterations = 100_000
)

// HashPassword derives a storable credential from a plaintext password. The
// result is hex(salt || key); a fresh random salt means equal passwords
// never hash equal.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(append(salt, key...)), nil
}

// VerifyPassword reports whether password matches the stored credential.
// Comparison is constant time.
func VerifyPassword(stored, password string) (bool, error) {
	raw, err := hex.DecodeString(stored)
	if err != nil {
		return false, fmt.Errorf("malformed credential: %w", err)
	}
	if len(raw) != saltLength+keyLength {
		return false, fmt.Errorf("malformed credential: want %d bytes, got %d", saltLength+keyLength, len(raw))
	}
	salt, key := raw[:saltLength], raw[saltLength:]
	derived := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, derived) == 1, nil
}
