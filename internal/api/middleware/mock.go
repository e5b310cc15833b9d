// Package middleware provides HTTP middleware components for the Arena API.
package middleware

import (
	"context"

	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// MockKeyStore is a mock implementation of KeyStore for testing.
type MockKeyStore struct {
	FindByKeyFunc func(ctx context.Context, key string) (*storage.GameKey, bool)
}

var _ KeyStore = (*MockKeyStore)(nil)

// FindByKey implements KeyStore.FindByKey.
func (m *MockKeyStore) FindByKey(ctx context.Context, key string) (*storage.GameKey, bool) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, key)
	}

	return nil, false
}
