package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
)

// handleListCandidates handles GET /api/v1/matchmaking/candidates.
// Returns the turn's availability records in store order, which is the order
// pairing passes attempt them.
//
// Query Parameters:
//   - turn: required, 0 to 4294967295
//
// Outcomes:
//   - 200 OK: CandidateListResponse, possibly with an empty candidate list
//   - 400 Bad Request: missing or malformed turn parameter
//   - 502 Bad Gateway: the listing failed, including unparseable stored keys
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	turnNumber, problem := parseTurnParam(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	candidates, err := s.matchStore.ListCandidates(ctx, turnNumber)
	if err != nil {
		s.logger.Error("Failed to list candidates",
			slog.String("correlation_id", correlationID),
			slog.Uint64("turn_number", uint64(turnNumber)),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, BadGateway("Failed to list candidates"))

		return
	}

	response := &CandidateListResponse{
		TurnNumber:    turnNumber,
		Count:         len(candidates),
		Candidates:    mapCandidates(candidates),
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	s.writeJSONResponse(w, r, http.StatusOK, response)
}

// parseTurnParam parses and validates the required "turn" query parameter.
func parseTurnParam(r *http.Request) (uint32, *ProblemDetail) {
	raw := r.URL.Query().Get("turn")
	if raw == "" {
		return 0, BadRequest("Missing required query parameter 'turn'")
	}

	turnNumber, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, BadRequest("Invalid parameter 'turn': must be an integer between 0 and 4294967295")
	}

	return uint32(turnNumber), nil
}
