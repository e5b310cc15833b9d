// Package storage provides the matchmaking store implementations and game
// client key management for the arena service.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Game key format constants.
	randomBytesSize = 32
	gameKeyPrefix   = "arena_ak_"
	gameKeyLength   = 73 // "arena_ak_" + 64 hex chars
	maskPrefixLen   = 13 // Show "arena_ak_1234"
	maskSuffixLen   = 4  // Show last 4 chars
)

var (
	// ErrKeyAlreadyExists is returned when attempting to add a key that already exists.
	ErrKeyAlreadyExists = errors.New("game key already exists")
	// ErrKeyNil is returned when a nil game key is provided.
	ErrKeyNil = errors.New("game key cannot be nil")
	// ErrClientIDEmpty is returned when the client ID is empty during key generation.
	ErrClientIDEmpty = errors.New("client ID cannot be empty")
	// ErrKeyStringEmpty is returned when a key string is empty.
	ErrKeyStringEmpty = errors.New("key string cannot be empty")
	// ErrInvalidKeyFormat is returned when a game key doesn't match the expected format.
	ErrInvalidKeyFormat = errors.New("invalid game key format")
	// ErrInvalidKeyLength is returned when a game key length is incorrect.
	ErrInvalidKeyLength = errors.New("invalid game key length")
)

// GameKey identifies one authenticated game backend client. The plaintext key
// is never stored; only its bcrypt hash is.
type GameKey struct {
	ID        string     `json:"id"`
	KeyHash   string     `json:"-"`
	ClientID  string     `json:"clientId"`
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Active    bool       `json:"active"`
}

// Usable reports whether the key is active and unexpired.
func (k *GameKey) Usable() bool {
	if !k.Active {
		return false
	}

	if k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt) {
		return false
	}

	return true
}

// HasScope checks if the game key carries a specific scope.
func (k *GameKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}

	return false
}

// MaskKey masks a game key for secure logging by showing only the prefix and suffix.
// Designed specifically for 73-character arena game keys in format:
// "arena_ak_" + 64 hex chars = 73 total chars.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}

	keyLen := len(key)

	if keyLen == gameKeyLength {
		maskedLen := keyLen - maskPrefixLen - maskSuffixLen // 73 - 13 - 4 = 56

		return key[:maskPrefixLen] + strings.Repeat("*", maskedLen) + key[keyLen-maskSuffixLen:]
	}

	// Any other key length (testing, development, etc.) is masked completely.
	return strings.Repeat("*", keyLen)
}

// GenerateGameKey creates a new secure plaintext game key for a client. The
// caller is expected to hash it before storage.
func GenerateGameKey(clientID string) (string, error) {
	if clientID == "" {
		return "", ErrClientIDEmpty
	}

	// 32 random bytes (256 bits)
	randomBytes := make([]byte, randomBytesSize)

	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return gameKeyPrefix + hex.EncodeToString(randomBytes), nil
}

// ParseGameKey extracts the game key from various header formats.
func ParseGameKey(keyString string) (string, error) {
	if keyString == "" {
		return "", ErrKeyStringEmpty
	}

	keyString = strings.TrimPrefix(keyString, "Bearer ")

	if !strings.HasPrefix(keyString, gameKeyPrefix) {
		return "", ErrInvalidKeyFormat
	}

	if len(keyString) != gameKeyLength {
		return "", ErrInvalidKeyLength
	}

	return keyString, nil
}
