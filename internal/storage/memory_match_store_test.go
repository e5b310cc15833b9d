package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

func registerSkey(t *testing.T, store *MemoryMatchStore, turnNumber uint32, component, runID string) matchmaking.Skey {
	t.Helper()

	skey := matchmaking.Skey{RandomComponent: component, RunID: runID}
	if err := store.Register(t.Context(), turnNumber, skey); err != nil {
		t.Fatalf("Register(%s) unexpected error: %v", skey, err)
	}

	return skey
}

func TestMemoryMatchStore(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ctx := t.Context()

	t.Run("end turn registers a listable record", func(t *testing.T) {
		store := NewMemoryMatchStore()

		skey, err := store.EndTurn(ctx, 7, "run-1")
		if err != nil {
			t.Fatalf("EndTurn() unexpected error: %v", err)
		}

		if skey.RunID != "run-1" {
			t.Errorf("EndTurn() RunID = %q, want %q", skey.RunID, "run-1")
		}

		candidates, err := store.ListCandidates(ctx, 7)
		if err != nil {
			t.Fatalf("ListCandidates() unexpected error: %v", err)
		}

		if len(candidates) != 1 || candidates[0] != skey {
			t.Errorf("ListCandidates() = %v, want [%v]", candidates, skey)
		}
	})

	t.Run("register rejects duplicate sort key", func(t *testing.T) {
		store := NewMemoryMatchStore()
		skey := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "run-1")

		err := store.Register(ctx, 1, skey)
		if err == nil {
			t.Fatal("Register() expected error for duplicate sort key")
		}

		if !errors.Is(err, matchmaking.ErrAlreadyRegistered) {
			t.Errorf("Register() error = %v, want ErrAlreadyRegistered", err)
		}

		if !strings.Contains(err.Error(), "ConditionalCheckFailedException") {
			t.Errorf("Register() error = %q, want conditional failure class preserved", err)
		}
	})

	t.Run("listing follows lexical sort key order", func(t *testing.T) {
		store := NewMemoryMatchStore()
		third := registerSkey(t, store, 1, "cccccccccccccccc", "r3")
		first := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "r1")
		second := registerSkey(t, store, 1, "bbbbbbbbbbbbbbbb", "r2")

		candidates, err := store.ListCandidates(ctx, 1)
		if err != nil {
			t.Fatalf("ListCandidates() unexpected error: %v", err)
		}

		want := []matchmaking.Skey{first, second, third}
		if len(candidates) != len(want) {
			t.Fatalf("ListCandidates() returned %d records, want %d", len(candidates), len(want))
		}

		for i := range want {
			if candidates[i] != want[i] {
				t.Errorf("ListCandidates()[%d] = %v, want %v", i, candidates[i], want[i])
			}
		}
	})

	t.Run("listing is partition scoped", func(t *testing.T) {
		store := NewMemoryMatchStore()
		registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "r1")
		other := registerSkey(t, store, 2, "bbbbbbbbbbbbbbbb", "r2")

		candidates, err := store.ListCandidates(ctx, 2)
		if err != nil {
			t.Fatalf("ListCandidates() unexpected error: %v", err)
		}

		if len(candidates) != 1 || candidates[0] != other {
			t.Errorf("ListCandidates(2) = %v, want [%v]", candidates, other)
		}
	})

	t.Run("attempt match claims both records", func(t *testing.T) {
		store := NewMemoryMatchStore()
		p1 := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "p1")
		p2 := registerSkey(t, store, 1, "bbbbbbbbbbbbbbbb", "p2")

		result := store.AttemptMatch(ctx, 1, p1, p2)
		if result.Status != matchmaking.StatusMatched {
			t.Fatalf("AttemptMatch() status = %v, want matched", result.Status)
		}

		candidates, err := store.ListCandidates(ctx, 1)
		if err != nil {
			t.Fatalf("ListCandidates() unexpected error: %v", err)
		}

		if len(candidates) != 0 {
			t.Errorf("ListCandidates() after match = %v, want empty", candidates)
		}
	})

	t.Run("initiating player's condition failure wins", func(t *testing.T) {
		store := NewMemoryMatchStore()
		present := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "present")
		ghost := matchmaking.Skey{RandomComponent: "gggggggggggggggg", RunID: "ghost"}

		if result := store.AttemptMatch(ctx, 1, ghost, present); result.Status != matchmaking.StatusP1ConditionFailed {
			t.Errorf("AttemptMatch(ghost, present) status = %v, want p1 condition failure", result.Status)
		}

		if result := store.AttemptMatch(ctx, 1, present, ghost); result.Status != matchmaking.StatusP2ConditionFailed {
			t.Errorf("AttemptMatch(present, ghost) status = %v, want p2 condition failure", result.Status)
		}

		otherGhost := matchmaking.Skey{RandomComponent: "hhhhhhhhhhhhhhhh", RunID: "ghost2"}
		if result := store.AttemptMatch(ctx, 1, ghost, otherGhost); result.Status != matchmaking.StatusP1ConditionFailed {
			t.Errorf("AttemptMatch(ghost, ghost2) status = %v, want p1 condition failure to win", result.Status)
		}
	})

	t.Run("remove record is idempotent", func(t *testing.T) {
		store := NewMemoryMatchStore()
		skey := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "r1")

		if err := store.RemoveRecord(ctx, 1, skey); err != nil {
			t.Errorf("RemoveRecord() unexpected error: %v", err)
		}

		if err := store.RemoveRecord(ctx, 1, skey); err != nil {
			t.Errorf("RemoveRecord() second call unexpected error: %v", err)
		}
	})
}

func TestMemoryMatchStoreDrivesMatchmaking(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ctx := t.Context()

	t.Run("two players match", func(t *testing.T) {
		store := NewMemoryMatchStore()
		self := registerSkey(t, store, 3, "aaaaaaaaaaaaaaaa", "self")
		opponent := registerSkey(t, store, 3, "bbbbbbbbbbbbbbbb", "opponent")

		req := matchmaking.AsyncRequest{TurnNumber: 3, Skey: self}

		result, err := matchmaking.AttemptMatchmaking(ctx, store, req, store.ListCandidates)
		if err != nil {
			t.Fatalf("AttemptMatchmaking() unexpected error: %v", err)
		}

		if result.Decision != matchmaking.DecisionMatched {
			t.Fatalf("AttemptMatchmaking() decision = %v, want matched", result.Decision)
		}

		if result.Opponent != opponent {
			t.Errorf("AttemptMatchmaking() opponent = %v, want %v", result.Opponent, opponent)
		}

		if store.ListCalls() != 1 {
			t.Errorf("ListCalls() = %d, want exactly one listing per pass", store.ListCalls())
		}
	})

	t.Run("lone player fake simulates", func(t *testing.T) {
		store := NewMemoryMatchStore()
		self := registerSkey(t, store, 999, "aaaaaaaaaaaaaaaa", "self")

		req := matchmaking.AsyncRequest{TurnNumber: 999, Skey: self}

		result, err := matchmaking.AttemptMatchmaking(ctx, store, req, store.ListCandidates)
		if err != nil {
			t.Fatalf("AttemptMatchmaking() unexpected error: %v", err)
		}

		if result.Decision != matchmaking.DecisionFakeSimulate {
			t.Fatalf("AttemptMatchmaking() decision = %v, want fake_simulate", result.Decision)
		}

		if result.Degraded {
			t.Error("AttemptMatchmaking() degraded = true, want false for an empty pool")
		}
	})

	t.Run("candidates claimed between list and attempt", func(t *testing.T) {
		store := NewMemoryMatchStore()
		self := registerSkey(t, store, 5, "aaaaaaaaaaaaaaaa", "p1")
		second := registerSkey(t, store, 5, "bbbbbbbbbbbbbbbb", "p2")
		third := registerSkey(t, store, 5, "cccccccccccccccc", "p3")
		fourth := registerSkey(t, store, 5, "dddddddddddddddd", "p4")

		// The listing sees all four, then two candidates vanish before the
		// pass starts attempting claims.
		list := func(ctx2 context.Context, turnNumber uint32) ([]matchmaking.Skey, error) {
			candidates, err := store.ListCandidates(ctx2, turnNumber)
			if err != nil {
				return nil, err
			}

			if err := store.RemoveRecord(ctx2, turnNumber, second); err != nil {
				return nil, err
			}

			if err := store.RemoveRecord(ctx2, turnNumber, third); err != nil {
				return nil, err
			}

			return candidates, nil
		}

		req := matchmaking.AsyncRequest{TurnNumber: 5, Skey: self}

		result, err := matchmaking.AttemptMatchmaking(ctx, store, req, list)
		if err != nil {
			t.Fatalf("AttemptMatchmaking() unexpected error: %v", err)
		}

		if result.Decision != matchmaking.DecisionMatched {
			t.Fatalf("AttemptMatchmaking() decision = %v, want matched", result.Decision)
		}

		if result.Opponent != fourth {
			t.Errorf("AttemptMatchmaking() opponent = %v, want %v", result.Opponent, fourth)
		}
	})
}

func TestMemoryMatchStoreConcurrentClaims(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ctx := t.Context()
	store := NewMemoryMatchStore()
	p1 := registerSkey(t, store, 1, "aaaaaaaaaaaaaaaa", "p1")
	p2 := registerSkey(t, store, 1, "bbbbbbbbbbbbbbbb", "p2")

	const attempts = 10

	results := make(chan matchmaking.MatchResult, attempts)

	for range attempts {
		go func() {
			results <- store.AttemptMatch(ctx, 1, p1, p2)
		}()
	}

	matched := 0

	for range attempts {
		result := <-results

		switch result.Status {
		case matchmaking.StatusMatched:
			matched++
		case matchmaking.StatusP1ConditionFailed, matchmaking.StatusP2ConditionFailed:
			// Losers observe a condition failure.
		default:
			t.Errorf("AttemptMatch() status = %v, want matched or condition failure", result.Status)
		}
	}

	if matched != 1 {
		t.Errorf("concurrent AttemptMatch produced %d matches, want exactly 1", matched)
	}
}
