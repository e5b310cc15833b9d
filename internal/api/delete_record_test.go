package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

const recordsPath = "/api/v1/matchmaking/records"

func TestDeleteRecordRemovesRecord(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := storage.NewMemoryMatchStore()
	skey := registerRecord(t, store, 11, "aaaaaaaaaaaaaaaa_run-1")

	server := newUnitTestServer(t, store, nil)

	rr := doJSONRequest(server, http.MethodDelete, recordsPath, recordBody(t, 11, skey.String()))

	assert.Equal(t, http.StatusNoContent, rr.Code, "Response body: %s", rr.Body.String())
	assert.Empty(t, rr.Body.String())

	candidates, err := store.ListCandidates(context.Background(), 11)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDeleteRecordIdempotent(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	server := newUnitTestServer(t, storage.NewMemoryMatchStore(), nil)

	// Deleting a record that was already claimed, or never existed, succeeds.
	rr := doJSONRequest(server, http.MethodDelete, recordsPath,
		recordBody(t, 11, "aaaaaaaaaaaaaaaa_run-gone"))

	assert.Equal(t, http.StatusNoContent, rr.Code, "Response body: %s", rr.Body.String())
}

func TestDeleteRecordValidation(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	server := newUnitTestServer(t, storage.NewMemoryMatchStore(), nil)

	tests := []struct {
		name       string
		body       []byte
		wantDetail string
	}{
		{
			name:       "empty body",
			body:       []byte{},
			wantDetail: "Request body cannot be empty",
		},
		{
			name:       "sort key without separator",
			body:       []byte(`{"turn_number": 1, "sort_key": "nounderscore"}`),
			wantDetail: "Invalid sort_key",
		},
		{
			name:       "turn number above range",
			body:       []byte(`{"turn_number": 4294967296, "sort_key": "aaaaaaaaaaaaaaaa_run-1"}`),
			wantDetail: "turn_number must be between 0 and 4294967295",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSONRequest(server, http.MethodDelete, recordsPath, tt.body)

			problem := decodeProblem(t, rr, http.StatusBadRequest)
			assert.Contains(t, problemDetail(problem), tt.wantDetail)
		})
	}
}

func TestDeleteRecordStoreFailure(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	server := newUnitTestServer(t, &failingMatchStore{err: errTestStoreDown}, nil)

	rr := doJSONRequest(server, http.MethodDelete, recordsPath,
		recordBody(t, 11, "aaaaaaaaaaaaaaaa_run-1"))

	decodeProblem(t, rr, http.StatusBadGateway)
}
