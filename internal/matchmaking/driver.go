package matchmaking

import (
	"context"
	"fmt"
)

// ListFunc supplies the candidate page for a turn. Production callers pass a
// Store's ListCandidates method; tests substitute closures that mutate store
// state between the listing and the pair attempts.
type ListFunc func(ctx context.Context, turnNumber uint32) ([]Skey, error)

// Pairer is the slice of Store a matchmaking pass needs.
type Pairer interface {
	AttemptMatch(ctx context.Context, turnNumber uint32, p1, p2 Skey) MatchResult
}

// AttemptMatchmaking runs one pairing pass for req's player: list the turn's
// candidates once, then attempt a transactional claim against each other
// candidate in listing order until an attempt settles the outcome.
//
// The returned error is non-nil only when the listing itself fails; every
// failure past that point is expressed in the Result.
func AttemptMatchmaking(ctx context.Context, pairer Pairer, req AsyncRequest, list ListFunc) (Result, error) {
	candidates, err := list(ctx, req.TurnNumber)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list candidates for turn %d: %w", req.TurnNumber, err)
	}

	for _, candidate := range candidates {
		// A candidate is only this player's own record when both the run ID
		// and the random component match.
		if candidate == req.Skey {
			continue
		}

		result := pairer.AttemptMatch(ctx, req.TurnNumber, req.Skey, candidate)

		switch result.Status {
		case StatusMatched:
			return Result{Decision: DecisionMatched, Opponent: candidate}, nil
		case StatusP1ConditionFailed:
			// Our own record is gone: a concurrent pass already claimed this
			// player, so the request is settled.
			return Result{Decision: DecisionCanDrop}, nil
		case StatusP2ConditionFailed:
			// The candidate was claimed first; move on to the next one.
			continue
		case StatusUnrecoverable:
			return Result{Decision: DecisionFakeSimulate, Degraded: true, Reason: result.Reason}, nil
		}
	}

	return Result{Decision: DecisionFakeSimulate}, nil
}
