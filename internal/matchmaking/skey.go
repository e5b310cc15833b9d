// Package matchmaking implements turn-scoped opponent pairing on a
// partitioned key-value store with conditional writes and two-item
// transactions.
//
// Each turn owns one partition of availability records. A player joins the
// pool by registering a record, and a pairing pass claims two records
// atomically so that no player is ever matched twice for the same turn.
package matchmaking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// PartitionPrefix scopes every availability record to a single turn.
	PartitionPrefix = "matchmaking#turn_"

	randomComponentLength = 16
	randomAlphabet        = "abcdefghijklmnopqrstuvwxyz"
)

var (
	// ErrMalformedSortKey is returned when a sort key carries no underscore
	// separating the random component from the run ID.
	ErrMalformedSortKey = errors.New("malformed sort key: missing component separator")
	// ErrRunIDEmpty is returned when a run ID is empty during sort key generation.
	ErrRunIDEmpty = errors.New("run ID cannot be empty")
)

// Skey identifies one player's availability record within a turn partition.
// The random component makes concurrent registrations for the same run ID
// collision-free and spreads records across the partition's sort order.
type Skey struct {
	RandomComponent string
	RunID           string
}

// NewSkey builds the sort key for a fresh availability record: a uniformly
// random 16-letter component joined to the caller's run ID.
func NewSkey(runID string) (Skey, error) {
	if runID == "" {
		return Skey{}, ErrRunIDEmpty
	}

	component, err := randomLowercase(randomComponentLength)
	if err != nil {
		return Skey{}, err
	}

	return Skey{RandomComponent: component, RunID: runID}, nil
}

// ParseSkey splits a stored sort key into its random component and run ID.
// Only the first underscore separates the two; run IDs may themselves
// contain underscores.
func ParseSkey(s string) (Skey, error) {
	component, runID, found := strings.Cut(s, "_")
	if !found {
		return Skey{}, fmt.Errorf("%w: %q", ErrMalformedSortKey, s)
	}

	return Skey{RandomComponent: component, RunID: runID}, nil
}

// String renders the stored form: "<random_component>_<run_id>".
func (k Skey) String() string {
	return k.RandomComponent + "_" + k.RunID
}

// PartitionForTurn formats the partition key that scopes records to one turn.
func PartitionForTurn(turnNumber uint32) string {
	return PartitionPrefix + strconv.FormatUint(uint64(turnNumber), 10)
}

// randomLowercase draws n letters i.i.d. uniform over [a-z] from crypto/rand.
func randomLowercase(n int) (string, error) {
	alphabetSize := big.NewInt(int64(len(randomAlphabet)))
	letters := make([]byte, n)

	for i := range letters {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate random component: %w", err)
		}

		letters[i] = randomAlphabet[idx.Int64()]
	}

	return string(letters), nil
}
