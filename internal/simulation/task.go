// Package simulation produces the tasks a completed matchmaking pass hands
// to the downstream game simulator.
//
// The package is producer-side only: it shapes tasks, picks synthetic
// opponents when no real one could be claimed, and publishes to the task
// queue. Consuming the tasks and running the simulation belongs to an
// external collaborator.
package simulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

type (
	// Task is one unit of simulation work. Versus tasks carry two claimed
	// players; synthetic tasks pit one player against a roster opponent.
	Task struct {
		ID         string    `json:"id"`
		TurnNumber uint32    `json:"turn_number"` //nolint: tagliatelle
		Player     string    `json:"player"`
		Opponent   string    `json:"opponent"`
		Synthetic  bool      `json:"synthetic"`
		Degraded   bool      `json:"degraded,omitempty"`
		Reason     string    `json:"reason,omitempty"`
		EnqueuedAt time.Time `json:"enqueued_at"` //nolint: tagliatelle
	}
)

// NewVersusTask shapes the task for a matched pair of real players.
func NewVersusTask(turnNumber uint32, player, opponent matchmaking.Skey) Task {
	return Task{
		ID:         uuid.NewString(),
		TurnNumber: turnNumber,
		Player:     player.String(),
		Opponent:   opponent.String(),
		Synthetic:  false,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewSyntheticTask shapes the task for a player who could not claim a real
// opponent. Degraded marks fakes forced by a store failure rather than an
// empty candidate pool; reason preserves the failure text for the consumer.
func NewSyntheticTask(turnNumber uint32, player matchmaking.Skey, opponent string, degraded bool, reason string) Task {
	return Task{
		ID:         uuid.NewString(),
		TurnNumber: turnNumber,
		Player:     player.String(),
		Opponent:   opponent,
		Synthetic:  true,
		Degraded:   degraded,
		Reason:     reason,
		EnqueuedAt: time.Now().UTC(),
	}
}
