package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

// handleEndTurn handles end-of-turn availability registration.
// POST /api/v1/turns/end - Register a player's availability for a turn
//
// Request validation (returns 4xx):
//   - 405 Method Not Allowed: Only POST is allowed (handled by route pattern)
//   - 415 Unsupported Media Type: Content-Type must be application/json
//   - 413 Payload Too Large: Request body exceeds MaxRequestSize
//   - 400 Bad Request: Empty body, invalid JSON, empty run_id, or turn_number out of range
//
// Outcomes:
//   - 202 Accepted: record registered; "dispatched" reports whether a pairing
//     pass was queued for it
//   - 409 Conflict: the turn partition already holds a record under the
//     generated sort key
//   - 502 Bad Gateway: the matchmaking store rejected the registration
//   - 503 Service Unavailable: record registered but the dispatch queue was
//     full; the record stays claimable by other players' passes
func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	correlationID := middleware.GetCorrelationID(r.Context())

	// Content-Type validation
	if !hasJSONContentType(r.Header.Get("Content-Type")) {
		WriteErrorResponse(w, r, s.logger, UnsupportedMediaType("Content-Type must be application/json"))

		return
	}

	// Parse and validate request
	turnNumber, runID, problem := s.parseEndTurnRequest(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	// Register the availability record (conditional put, no retries)
	skey, err := s.matchStore.EndTurn(r.Context(), turnNumber, runID)
	if err != nil {
		s.writeEndTurnError(w, r, turnNumber, runID, err)

		return
	}

	// Queue the follow-up pairing pass
	dispatched, problem := s.dispatchPass(turnNumber, skey)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	response := &EndTurnResponse{
		TurnNumber:    turnNumber,
		RunID:         runID,
		SortKey:       skey.String(),
		Dispatched:    dispatched,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	s.writeJSONResponse(w, r, http.StatusAccepted, response)

	s.logger.Info("Availability record registered",
		slog.String("correlation_id", correlationID),
		slog.Uint64("turn_number", uint64(turnNumber)),
		slog.String("run_id", runID),
		slog.String("sort_key", skey.String()),
		slog.Bool("dispatched", dispatched),
		slog.Duration("duration", time.Since(startTime)),
	)
}

// parseEndTurnRequest parses and validates the HTTP request body for end-turn.
// Returns the validated turn number and run ID, or a ProblemDetail if
// validation fails.
func (s *Server) parseEndTurnRequest(r *http.Request) (uint32, string, *ProblemDetail) {
	// Request size check (optimization: fail fast for known oversized requests)
	if r.ContentLength > 0 && r.ContentLength > s.config.MaxRequestSize {
		return 0, "", PayloadTooLarge(
			fmt.Sprintf("Request body exceeds maximum size of %d bytes", s.config.MaxRequestSize),
		)
	}

	// Empty body check (better UX: specific error message)
	if r.ContentLength == 0 {
		return 0, "", BadRequest("Request body cannot be empty")
	}

	var req EndTurnRequest

	decoder := json.NewDecoder(io.LimitReader(r.Body, s.config.MaxRequestSize))
	if err := decoder.Decode(&req); err != nil {
		return 0, "", BadRequest("Invalid JSON: " + err.Error())
	}

	turnNumber, err := validateTurnNumber(req.TurnNumber)
	if err != nil {
		return 0, "", BadRequest(err.Error())
	}

	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		return 0, "", BadRequest("run_id cannot be empty")
	}

	return turnNumber, runID, nil
}

// writeEndTurnError maps a registration failure to its RFC 7807 response.
//
// A conditional-check conflict means the partition already holds the exact
// sort key; every other failure is a store-side fault reported as 502.
func (s *Server) writeEndTurnError(w http.ResponseWriter, r *http.Request, turnNumber uint32, runID string, err error) {
	correlationID := middleware.GetCorrelationID(r.Context())

	if errors.Is(err, matchmaking.ErrAlreadyRegistered) {
		s.logger.Warn("Duplicate availability registration",
			slog.String("correlation_id", correlationID),
			slog.Uint64("turn_number", uint64(turnNumber)),
			slog.String("run_id", runID),
		)
		WriteErrorResponse(w, r, s.logger, Conflict("An availability record already exists for this sort key"))

		return
	}

	s.logger.Error("Failed to register availability record",
		slog.String("correlation_id", correlationID),
		slog.Uint64("turn_number", uint64(turnNumber)),
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
	)
	WriteErrorResponse(w, r, s.logger, BadGateway("Failed to register availability record"))
}

// dispatchPass queues the follow-up pairing pass for a registered record.
//
// A nil dispatcher reports dispatched=false: the record stays registered and
// other players' passes can still claim it. A full queue is backpressure and
// maps to 503; the registration itself is never rolled back.
func (s *Server) dispatchPass(turnNumber uint32, skey matchmaking.Skey) (bool, *ProblemDetail) {
	if s.dispatcher == nil {
		return false, nil
	}

	req := matchmaking.AsyncRequest{TurnNumber: turnNumber, Skey: skey}
	if err := s.dispatcher.Submit(req); err != nil {
		s.logger.Warn("Pairing pass not queued",
			slog.Uint64("turn_number", uint64(turnNumber)),
			slog.String("sort_key", skey.String()),
			slog.String("error", err.Error()),
		)

		return false, ServiceUnavailable("Availability record registered but no pairing pass could be queued; retry shortly")
	}

	return true, nil
}
