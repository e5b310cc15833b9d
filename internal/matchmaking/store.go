package matchmaking

import (
	"context"
	"errors"
)

// ErrAlreadyRegistered is returned by EndTurn and Register when the turn
// partition already holds a record under the same sort key. Store
// implementations wrap it so callers can map the conflict without parsing
// backend error strings.
var ErrAlreadyRegistered = errors.New("availability record already registered")

// Store defines the persistence contract for availability records.
//
// Implementations sit on a partitioned key-value store with conditional
// writes and two-item transactions. Every method scopes its work to a single
// turn partition, and none of them retries: contention is surfaced to the
// caller as a first-class outcome.
type Store interface {
	// EndTurn registers a fresh availability record for runID in the turn's
	// partition and returns the generated sort key. The write is conditional
	// on the record not already existing.
	EndTurn(ctx context.Context, turnNumber uint32, runID string) (Skey, error)

	// Register writes an availability record under a caller-supplied sort
	// key, with the same not-exists condition as EndTurn.
	Register(ctx context.Context, turnNumber uint32, skey Skey) error

	// ListCandidates returns one page of the turn's availability records in
	// store order. A record whose sort key cannot be parsed fails the whole
	// call.
	ListCandidates(ctx context.Context, turnNumber uint32) ([]Skey, error)

	// AttemptMatch claims p1 and p2 by deleting both availability records in
	// one transaction, each delete conditional on its record still existing.
	// Every failure is folded into the MatchResult.
	AttemptMatch(ctx context.Context, turnNumber uint32, p1, p2 Skey) MatchResult

	// RemoveRecord deletes one availability record unconditionally.
	RemoveRecord(ctx context.Context, turnNumber uint32, skey Skey) error

	// HealthCheck verifies the backing table is reachable.
	HealthCheck(ctx context.Context) error
}
