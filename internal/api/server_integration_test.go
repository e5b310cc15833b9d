// Package api provides HTTP API server implementation for the Arena service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// TestServerMatchmakingFlowIntegration drives the full HTTP surface against a
// real DynamoDB Local table: end-turn registration, candidate listing, a
// synchronous pairing pass, and record deletion, in the order a game backend
// would call them.
//
// The server runs without key store, rate limiter, or dispatcher so the pool
// only changes when a test asks it to; pairing is triggered explicitly
// through POST /api/v1/matchmaking/run.
func TestServerMatchmakingFlowIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testTable := config.SetupTestTable(ctx, t)

	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(testTable.Container)
	})

	store, err := storage.NewDynamoMatchStore(testTable.Client, &storage.Config{
		Driver:                storage.DriverDynamoDB,
		TableName:             testTable.Name,
		PartitionKeyAttribute: config.TestPartitionKeyAttribute,
		SortKeyAttribute:      config.TestSortKeyAttribute,
		Region:                "us-east-1",
		Endpoint:              testTable.Endpoint,
	})
	require.NoError(t, err, "Failed to create match store")

	server := NewServer(integrationServerConfig(), nil, nil, store, nil)

	const turnNumber = 42

	var alphaKey, betaKey string

	t.Run("Ready And Health Report The Live Store", func(t *testing.T) {
		rr := doJSONRequest(server, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())
		assert.Equal(t, "ready", rr.Body.String())

		rr = doJSONRequest(server, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())

		var health HealthStatus

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Nil(t, health.Matchmaking, "No dispatcher configured, stats must be omitted")
	})

	t.Run("End Turn Registers Availability Records", func(t *testing.T) {
		rr := doJSONRequest(server, http.MethodPost, endTurnPath, endTurnBody(t, turnNumber, "run-alpha"))
		require.Equal(t, http.StatusAccepted, rr.Code, "Response body: %s", rr.Body.String())

		var resp EndTurnResponse

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, uint32(turnNumber), resp.TurnNumber)
		assert.Equal(t, "run-alpha", resp.RunID)
		assert.False(t, resp.Dispatched, "No dispatcher configured")

		_, err := time.Parse(time.RFC3339, resp.Timestamp)
		assert.NoError(t, err, "Timestamp must be RFC 3339")

		skey, err := matchmaking.ParseSkey(resp.SortKey)
		require.NoError(t, err, "Sort key must round-trip through the parser")
		assert.Equal(t, "run-alpha", skey.RunID)

		alphaKey = resp.SortKey

		rr = doJSONRequest(server, http.MethodPost, endTurnPath, endTurnBody(t, turnNumber, "run-beta"))
		require.Equal(t, http.StatusAccepted, rr.Code, "Response body: %s", rr.Body.String())

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		betaKey = resp.SortKey
	})

	t.Run("Candidates Lists Records In Store Order", func(t *testing.T) {
		rr := doJSONRequest(server, http.MethodGet, candidatesPath+"?turn=42", nil)
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())

		var resp CandidateListResponse

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, uint32(turnNumber), resp.TurnNumber)
		require.Equal(t, 2, resp.Count)

		sortKeys := make([]string, 0, len(resp.Candidates))
		for _, candidate := range resp.Candidates {
			sortKeys = append(sortKeys, candidate.SortKey)
		}

		assert.ElementsMatch(t, []string{alphaKey, betaKey}, sortKeys)
		assert.True(t, slices.IsSorted(sortKeys), "Range key order must be lexical")
	})

	t.Run("Run Matchmaking Claims The Pair", func(t *testing.T) {
		rr := doJSONRequest(server, http.MethodPost, runMatchmakingPath, recordBody(t, turnNumber, alphaKey))
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())

		resp := decodeRunResponse(t, rr.Body.Bytes())
		assert.Equal(t, "matched", resp.Decision)
		assert.Equal(t, betaKey, resp.Opponent, "Only one other candidate was in the pool")
		assert.False(t, resp.Degraded)

		candidates, err := store.ListCandidates(ctx, turnNumber)
		require.NoError(t, err)
		assert.Empty(t, candidates, "Both availability records must be claimed")
	})

	t.Run("Claimed Record Fake Simulates Against Empty Pool", func(t *testing.T) {
		rr := doJSONRequest(server, http.MethodPost, runMatchmakingPath, recordBody(t, turnNumber, alphaKey))
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())

		resp := decodeRunResponse(t, rr.Body.Bytes())
		assert.Equal(t, "fake_simulate", resp.Decision)
		assert.False(t, resp.Degraded, "An empty pool is exhaustion, not degradation")
		assert.Empty(t, resp.Reason)
	})

	t.Run("Concurrent Claim Surfaces As Can Drop", func(t *testing.T) {
		const racedTurn = 77

		rr := doJSONRequest(server, http.MethodPost, endTurnPath, endTurnBody(t, racedTurn, "run-raced"))
		require.Equal(t, http.StatusAccepted, rr.Code, "Response body: %s", rr.Body.String())

		var raced EndTurnResponse

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raced))

		rr = doJSONRequest(server, http.MethodPost, endTurnPath, endTurnBody(t, racedTurn, "run-bystander"))
		require.Equal(t, http.StatusAccepted, rr.Code, "Response body: %s", rr.Body.String())

		var bystander EndTurnResponse

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bystander))

		// Simulate another pass winning the race: the player's own record is
		// gone by the time their pass attempts the pair.
		rr = doJSONRequest(server, http.MethodDelete, recordsPath, recordBody(t, racedTurn, raced.SortKey))
		require.Equal(t, http.StatusNoContent, rr.Code, "Response body: %s", rr.Body.String())

		rr = doJSONRequest(server, http.MethodPost, runMatchmakingPath, recordBody(t, racedTurn, raced.SortKey))
		require.Equal(t, http.StatusOK, rr.Code, "Response body: %s", rr.Body.String())

		resp := decodeRunResponse(t, rr.Body.Bytes())
		assert.Equal(t, "can_drop", resp.Decision)
		assert.Empty(t, resp.Opponent)

		// The failed transaction must not have consumed the bystander.
		candidates, err := store.ListCandidates(ctx, racedTurn)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, bystander.SortKey, candidates[0].String())
	})

	t.Run("Delete Record Is Idempotent", func(t *testing.T) {
		const deleteTurn = 99

		rr := doJSONRequest(server, http.MethodPost, endTurnPath, endTurnBody(t, deleteTurn, "run-gamma"))
		require.Equal(t, http.StatusAccepted, rr.Code, "Response body: %s", rr.Body.String())

		var resp EndTurnResponse

		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

		rr = doJSONRequest(server, http.MethodDelete, recordsPath, recordBody(t, deleteTurn, resp.SortKey))
		assert.Equal(t, http.StatusNoContent, rr.Code, "Response body: %s", rr.Body.String())
		assert.Empty(t, rr.Body.String(), "204 must carry no body")

		rr = doJSONRequest(server, http.MethodDelete, recordsPath, recordBody(t, deleteTurn, resp.SortKey))
		assert.Equal(t, http.StatusNoContent, rr.Code, "Deleting an absent record is not an error")

		candidates, err := store.ListCandidates(ctx, deleteTurn)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}
