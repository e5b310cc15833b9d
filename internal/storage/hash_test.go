package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestHashGameKey(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	key, err := GenerateGameKey("realm-eu-1")
	if err != nil {
		t.Fatalf("GenerateGameKey() unexpected error: %v", err)
	}

	hash, err := HashGameKey(key)
	if err != nil {
		t.Fatalf("HashGameKey() unexpected error: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("HashGameKey() = %q, want bcrypt hash", hash)
	}

	// Each hash carries its own salt.
	second, err := HashGameKey(key)
	if err != nil {
		t.Fatalf("HashGameKey() unexpected error: %v", err)
	}

	if hash == second {
		t.Error("HashGameKey() produced identical hashes for the same key")
	}

	if _, err := HashGameKey(""); !errors.Is(err, ErrKeyStringEmpty) {
		t.Errorf("HashGameKey(\"\") error = %v, want ErrKeyStringEmpty", err)
	}
}

func TestCompareGameKeyHash(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	// Standard 73-character keys exceed bcrypt's 72-byte limit and take the
	// SHA-256 pre-hash path; short development keys take the direct path.
	standard, err := GenerateGameKey("realm-eu-1")
	if err != nil {
		t.Fatalf("GenerateGameKey() unexpected error: %v", err)
	}

	for _, key := range []string{standard, "dev-key"} {
		hash, err := HashGameKey(key)
		if err != nil {
			t.Fatalf("HashGameKey(%q) unexpected error: %v", key, err)
		}

		if !CompareGameKeyHash(hash, key) {
			t.Errorf("CompareGameKeyHash() = false for matching key %q", key)
		}

		if CompareGameKeyHash(hash, key+"x") {
			t.Errorf("CompareGameKeyHash() = true for non-matching key %q", key)
		}
	}

	if CompareGameKeyHash("", "key") {
		t.Error("CompareGameKeyHash(empty hash) = true, want false")
	}

	if CompareGameKeyHash("$2a$10$invalid", "") {
		t.Error("CompareGameKeyHash(empty key) = true, want false")
	}
}
