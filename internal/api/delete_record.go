package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
)

// handleDeleteRecord handles availability record removal.
// DELETE /api/v1/matchmaking/records - Remove one record unconditionally
//
// Removal is idempotent: deleting a record that was already claimed or never
// existed succeeds, matching the store's unconditional delete semantics.
//
// Request validation (returns 4xx):
//   - 415 Unsupported Media Type: Content-Type must be application/json
//   - 413 Payload Too Large: Request body exceeds MaxRequestSize
//   - 400 Bad Request: Empty body, invalid JSON, malformed sort_key, or
//     turn_number out of range
//
// Outcomes:
//   - 204 No Content: the record is gone
//   - 502 Bad Gateway: the store rejected the delete
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	correlationID := middleware.GetCorrelationID(r.Context())

	// Content-Type validation
	if !hasJSONContentType(r.Header.Get("Content-Type")) {
		WriteErrorResponse(w, r, s.logger, UnsupportedMediaType("Content-Type must be application/json"))

		return
	}

	// Parse and validate request (same payload shape as matchmaking-run)
	turnNumber, skey, problem := s.parseRecordRequest(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	if err := s.matchStore.RemoveRecord(r.Context(), turnNumber, skey); err != nil {
		s.logger.Error("Failed to remove availability record",
			slog.String("correlation_id", correlationID),
			slog.Uint64("turn_number", uint64(turnNumber)),
			slog.String("sort_key", skey.String()),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, BadGateway("Failed to remove availability record"))

		return
	}

	w.WriteHeader(http.StatusNoContent)

	s.logger.Info("Availability record removed",
		slog.String("correlation_id", correlationID),
		slog.Uint64("turn_number", uint64(turnNumber)),
		slog.String("sort_key", skey.String()),
		slog.Duration("duration", time.Since(startTime)),
	)
}
