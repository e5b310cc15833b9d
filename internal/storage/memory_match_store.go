package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

// MemoryMatchStore is an in-memory matchmaking.Store used by unit tests and
// by the memory storage driver for local development. It reproduces the
// DynamoDB store's observable semantics: lexically ordered listing, first
// position winning a double condition failure, and registration conflicts
// whose error text carries the conditional-write failure class.
type MemoryMatchStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]struct{}
	listCalls  int
}

// Compile-time check that MemoryMatchStore implements the matchmaking store contract.
var _ matchmaking.Store = (*MemoryMatchStore)(nil)

// NewMemoryMatchStore creates an empty in-memory match store.
func NewMemoryMatchStore() *MemoryMatchStore {
	return &MemoryMatchStore{
		partitions: make(map[string]map[string]struct{}),
	}
}

// EndTurn generates a fresh sort key for runID and registers it in the turn's
// partition.
func (s *MemoryMatchStore) EndTurn(ctx context.Context, turnNumber uint32, runID string) (matchmaking.Skey, error) {
	skey, err := matchmaking.NewSkey(runID)
	if err != nil {
		return matchmaking.Skey{}, err
	}

	if err := s.Register(ctx, turnNumber, skey); err != nil {
		return matchmaking.Skey{}, err
	}

	return skey, nil
}

// Register writes an availability record, failing when one already exists
// under the same composite key.
func (s *MemoryMatchStore) Register(_ context.Context, turnNumber uint32, skey matchmaking.Skey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition := matchmaking.PartitionForTurn(turnNumber)

	records, ok := s.partitions[partition]
	if !ok {
		records = make(map[string]struct{})
		s.partitions[partition] = records
	}

	sortKey := skey.String()
	if _, exists := records[sortKey]; exists {
		return fmt.Errorf("%w: ConditionalCheckFailedException: turn %d already holds %q",
			matchmaking.ErrAlreadyRegistered, turnNumber, sortKey)
	}

	records[sortKey] = struct{}{}

	return nil
}

// ListCandidates returns the turn's availability records in lexical sort-key
// order.
func (s *MemoryMatchStore) ListCandidates(_ context.Context, turnNumber uint32) ([]matchmaking.Skey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++

	records := s.partitions[matchmaking.PartitionForTurn(turnNumber)]

	sortKeys := make([]string, 0, len(records))
	for sortKey := range records {
		sortKeys = append(sortKeys, sortKey)
	}

	sort.Strings(sortKeys)

	candidates := make([]matchmaking.Skey, 0, len(sortKeys))

	for _, sortKey := range sortKeys {
		skey, err := matchmaking.ParseSkey(sortKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candidate sort key: %w", err)
		}

		candidates = append(candidates, skey)
	}

	return candidates, nil
}

// AttemptMatch atomically claims p1 and p2. When both records are already
// gone, the initiating player's condition failure wins.
func (s *MemoryMatchStore) AttemptMatch(_ context.Context, turnNumber uint32, p1, p2 matchmaking.Skey) matchmaking.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.partitions[matchmaking.PartitionForTurn(turnNumber)]

	if _, exists := records[p1.String()]; !exists {
		return matchmaking.P1ConditionFailed()
	}

	if _, exists := records[p2.String()]; !exists {
		return matchmaking.P2ConditionFailed()
	}

	delete(records, p1.String())
	delete(records, p2.String())

	return matchmaking.Matched(p1, p2)
}

// RemoveRecord deletes one availability record; removing an absent record is
// not an error.
func (s *MemoryMatchStore) RemoveRecord(_ context.Context, turnNumber uint32, skey matchmaking.Skey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records, ok := s.partitions[matchmaking.PartitionForTurn(turnNumber)]; ok {
		delete(records, skey.String())
	}

	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *MemoryMatchStore) HealthCheck(_ context.Context) error {
	return nil
}

// ListCalls reports how many times ListCandidates has run, so tests can pin
// the one-listing-per-pass behavior.
func (s *MemoryMatchStore) ListCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listCalls
}
