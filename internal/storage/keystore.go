package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryGameKeyStore provides thread-safe in-memory storage for game keys.
// Keys are held hashed at rest; lookup compares the presented plaintext
// against every usable key's hash, so its cost scales with the key count and
// the bcrypt cost factor.
type InMemoryGameKeyStore struct {
	byID  map[string]*GameKey
	mutex sync.RWMutex
}

// NewInMemoryGameKeyStore creates a new thread-safe in-memory game key store.
func NewInMemoryGameKeyStore() *InMemoryGameKeyStore {
	return &InMemoryGameKeyStore{
		byID: make(map[string]*GameKey),
	}
}

// FindByKey resolves a plaintext game key to its stored record. Inactive and
// expired records are still returned; callers decide how to reject them so
// they can distinguish a revoked key from one that never existed.
func (s *InMemoryGameKeyStore) FindByKey(_ context.Context, key string) (*GameKey, bool) {
	if key == "" {
		return nil, false
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, candidate := range s.byID {
		if CompareGameKeyHash(candidate.KeyHash, key) {
			// Return a copy to prevent external modification.
			keyCopy := *candidate

			return &keyCopy, true
		}
	}

	return nil, false
}

// Add stores a new game key record.
func (s *InMemoryGameKeyStore) Add(_ context.Context, gameKey *GameKey) error {
	if gameKey == nil { // pragma: allowlist secret
		return ErrKeyNil
	}

	if gameKey.KeyHash == "" {
		return ErrKeyStringEmpty
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.byID[gameKey.ID]; exists {
		return ErrKeyAlreadyExists
	}

	// Store a copy to prevent external modification.
	keyCopy := *gameKey
	s.byID[keyCopy.ID] = &keyCopy

	return nil
}

// SeedPlaintextKeys hashes and stores ad-hoc keys, typically supplied through
// ARENA_API_KEYS for deployments without a key provisioning flow.
func (s *InMemoryGameKeyStore) SeedPlaintextKeys(ctx context.Context, keys []string) error {
	for i, plaintext := range keys {
		hash, err := HashGameKey(plaintext)
		if err != nil {
			return fmt.Errorf("failed to seed game key %d: %w", i+1, err)
		}

		gameKey := &GameKey{
			ID:        uuid.NewString(),
			KeyHash:   hash,
			ClientID:  fmt.Sprintf("env-client-%d", i+1),
			Name:      fmt.Sprintf("environment seeded key %d", i+1),
			Scopes:    []string{"turns:write", "matchmaking:run"},
			CreatedAt: time.Now(),
			Active:    true,
		}

		if err := s.Add(ctx, gameKey); err != nil {
			return fmt.Errorf("failed to seed game key %d: %w", i+1, err)
		}
	}

	return nil
}

// Count reports how many key records are stored.
func (s *InMemoryGameKeyStore) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.byID)
}
