// Package api provides HTTP API server implementation for the Arena service.
package api

import (
	"errors"
	"fmt"
	"math"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

type (
	// EndTurnRequest is the payload for POST /api/v1/turns/end.
	//
	// TurnNumber is declared as int64 so JSON fractions fail decoding and
	// negative or oversized values can be rejected with a specific message
	// instead of silently wrapping.
	EndTurnRequest struct {
		TurnNumber int64  `json:"turn_number"` //nolint: tagliatelle
		RunID      string `json:"run_id"`      //nolint: tagliatelle
	}

	// EndTurnResponse acknowledges a registered availability record.
	//
	// Dispatched reports whether a matchmaking pass was queued for the record;
	// registration succeeds independently of the dispatcher, so a record can
	// be registered and left for other players' passes to claim.
	EndTurnResponse struct {
		TurnNumber    uint32 `json:"turn_number"` //nolint: tagliatelle
		RunID         string `json:"run_id"`      //nolint: tagliatelle
		SortKey       string `json:"sort_key"`    //nolint: tagliatelle
		Dispatched    bool   `json:"dispatched"`
		CorrelationID string `json:"correlation_id"` //nolint: tagliatelle
		Timestamp     string `json:"timestamp"`
	}

	// RecordRequest is the payload addressing one availability record by turn
	// number and sort key. POST /api/v1/matchmaking/run and
	// DELETE /api/v1/matchmaking/records share this shape.
	RecordRequest struct {
		TurnNumber int64  `json:"turn_number"` //nolint: tagliatelle
		SortKey    string `json:"sort_key"`    //nolint: tagliatelle
	}

	// MatchmakingRunResponse reports the decision of one pairing pass.
	//
	// Decision is "matched", "can_drop", or "fake_simulate". Opponent is set
	// only for "matched"; degraded and reason are set only for a
	// "fake_simulate" forced by a store failure.
	MatchmakingRunResponse struct {
		TurnNumber    uint32 `json:"turn_number"` //nolint: tagliatelle
		SortKey       string `json:"sort_key"`    //nolint: tagliatelle
		Decision      string `json:"decision"`
		Opponent      string `json:"opponent,omitempty"`
		Degraded      bool   `json:"degraded,omitempty"`
		Reason        string `json:"reason,omitempty"`
		CorrelationID string `json:"correlation_id"` //nolint: tagliatelle
		Timestamp     string `json:"timestamp"`
	}

	// CandidateSummary is one availability record in a candidate listing.
	CandidateSummary struct {
		SortKey         string `json:"sort_key"`         //nolint: tagliatelle
		RandomComponent string `json:"random_component"` //nolint: tagliatelle
		RunID           string `json:"run_id"`           //nolint: tagliatelle
	}

	// CandidateListResponse is the response for GET /api/v1/matchmaking/candidates.
	// Candidates appear in store order, which is the order pairing passes
	// attempt them.
	CandidateListResponse struct {
		TurnNumber    uint32             `json:"turn_number"` //nolint: tagliatelle
		Count         int                `json:"count"`
		Candidates    []CandidateSummary `json:"candidates"`
		CorrelationID string             `json:"correlation_id"` //nolint: tagliatelle
		Timestamp     string             `json:"timestamp"`
	}
)

// maxTurnNumber is the largest turn the store's partition scheme addresses.
const maxTurnNumber = int64(math.MaxUint32)

// ErrTurnNumberRange is returned when a turn number is negative or exceeds
// the addressable range.
var ErrTurnNumberRange = errors.New("turn_number must be between 0 and 4294967295")

// validateTurnNumber narrows a decoded turn number to the store's uint32
// range. Fractions never reach here: they already fail JSON decoding into
// the request's int64 field.
func validateTurnNumber(turnNumber int64) (uint32, error) {
	if turnNumber < 0 || turnNumber > maxTurnNumber {
		return 0, fmt.Errorf("%w: got %d", ErrTurnNumberRange, turnNumber)
	}

	return uint32(turnNumber), nil
}

// mapCandidates converts domain sort keys to their API listing form.
func mapCandidates(skeys []matchmaking.Skey) []CandidateSummary {
	candidates := make([]CandidateSummary, len(skeys))

	for i, skey := range skeys {
		candidates[i] = CandidateSummary{
			SortKey:         skey.String(),
			RandomComponent: skey.RandomComponent,
			RunID:           skey.RunID,
		}
	}

	return candidates
}

// mapRunResult converts a pairing pass result to its API response form.
// The caller fills in correlation ID and timestamp.
func mapRunResult(turnNumber uint32, skey matchmaking.Skey, result matchmaking.Result) *MatchmakingRunResponse {
	response := &MatchmakingRunResponse{
		TurnNumber: turnNumber,
		SortKey:    skey.String(),
		Decision:   result.Decision.String(),
		Degraded:   result.Degraded,
		Reason:     result.Reason,
	}

	if result.Decision == matchmaking.DecisionMatched {
		response.Opponent = result.Opponent.String()
	}

	return response
}
