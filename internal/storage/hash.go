package storage

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost defines the computational cost for bcrypt hashing.
	// Cost 10 = ~60ms per hash; raise to 12 for hardened deployments.
	bcryptCost  = 10
	bcryptLimit = 72
)

// HashGameKey generates a bcrypt hash of the game key for storage. Standard
// 73-character arena keys exceed bcrypt's 72-byte input limit, so anything
// longer is pre-hashed with SHA-256 before bcrypt.
func HashGameKey(key string) (string, error) {
	if key == "" {
		return "", ErrKeyStringEmpty
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash game key: %w", err)
	}

	return string(hash), nil
}

// CompareGameKeyHash performs constant-time comparison of a plaintext game
// key against a stored bcrypt hash. It returns false for any error condition:
// empty inputs, invalid hash format, or mismatch.
func CompareGameKeyHash(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(key)) == nil
}

// bcryptInput prepares a key for bcrypt, pre-hashing with SHA-256 when it
// exceeds bcrypt's input limit. Hashing and comparison must share this.
func bcryptInput(key string) []byte {
	if len(key) > bcryptLimit {
		sum := sha256.Sum256([]byte(key))

		return sum[:]
	}

	return []byte(key)
}
