package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

// handleRunMatchmaking drives one synchronous pairing pass.
// POST /api/v1/matchmaking/run - Run matchmaking for a registered record
//
// The caller supplies the sort key returned by end-turn registration. The
// pass lists the turn's candidates once and attempts transactional claims in
// listing order; the response always carries a decision unless the listing
// itself fails.
//
// Request validation (returns 4xx):
//   - 415 Unsupported Media Type: Content-Type must be application/json
//   - 413 Payload Too Large: Request body exceeds MaxRequestSize
//   - 400 Bad Request: Empty body, invalid JSON, malformed sort_key, or
//     turn_number out of range
//
// Outcomes:
//   - 200 OK: decision is "matched", "can_drop", or "fake_simulate"
//   - 502 Bad Gateway: the candidate listing failed; no decision exists
func (s *Server) handleRunMatchmaking(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	correlationID := middleware.GetCorrelationID(r.Context())

	// Content-Type validation
	if !hasJSONContentType(r.Header.Get("Content-Type")) {
		WriteErrorResponse(w, r, s.logger, UnsupportedMediaType("Content-Type must be application/json"))

		return
	}

	// Parse and validate request
	turnNumber, skey, problem := s.parseRecordRequest(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	// Run one pairing pass; only a listing failure surfaces as an error
	req := matchmaking.AsyncRequest{TurnNumber: turnNumber, Skey: skey}

	result, err := matchmaking.AttemptMatchmaking(r.Context(), s.matchStore, req, s.matchStore.ListCandidates)
	if err != nil {
		s.logger.Error("Failed to list matchmaking candidates",
			slog.String("correlation_id", correlationID),
			slog.Uint64("turn_number", uint64(turnNumber)),
			slog.String("sort_key", skey.String()),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, BadGateway("Failed to list matchmaking candidates"))

		return
	}

	response := mapRunResult(turnNumber, skey, result)
	response.CorrelationID = correlationID
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)

	s.writeJSONResponse(w, r, http.StatusOK, response)

	s.logger.Info("Matchmaking pass completed",
		slog.String("correlation_id", correlationID),
		slog.Uint64("turn_number", uint64(turnNumber)),
		slog.String("sort_key", skey.String()),
		slog.String("decision", result.Decision.String()),
		slog.Bool("degraded", result.Degraded),
		slog.Duration("duration", time.Since(startTime)),
	)
}

// parseRecordRequest parses and validates a request body that addresses one
// availability record by turn number and sort key. Shared by the
// matchmaking-run and record-delete endpoints, whose payloads are identical.
func (s *Server) parseRecordRequest(r *http.Request) (uint32, matchmaking.Skey, *ProblemDetail) {
	// Request size check (optimization: fail fast for known oversized requests)
	if r.ContentLength > 0 && r.ContentLength > s.config.MaxRequestSize {
		return 0, matchmaking.Skey{}, PayloadTooLarge(
			fmt.Sprintf("Request body exceeds maximum size of %d bytes", s.config.MaxRequestSize),
		)
	}

	// Empty body check (better UX: specific error message)
	if r.ContentLength == 0 {
		return 0, matchmaking.Skey{}, BadRequest("Request body cannot be empty")
	}

	var req RecordRequest

	decoder := json.NewDecoder(io.LimitReader(r.Body, s.config.MaxRequestSize))
	if err := decoder.Decode(&req); err != nil {
		return 0, matchmaking.Skey{}, BadRequest("Invalid JSON: " + err.Error())
	}

	turnNumber, err := validateTurnNumber(req.TurnNumber)
	if err != nil {
		return 0, matchmaking.Skey{}, BadRequest(err.Error())
	}

	skey, err := matchmaking.ParseSkey(req.SortKey)
	if err != nil {
		return 0, matchmaking.Skey{}, BadRequest("Invalid sort_key: " + err.Error())
	}

	return turnNumber, skey, nil
}
