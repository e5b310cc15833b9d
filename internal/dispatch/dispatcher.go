// Package dispatch runs matchmaking passes on a bounded worker pool.
//
// The end-turn surface registers a player's availability record and hands the
// follow-up pairing work to a Dispatcher instead of running it on the request
// path. Workers drain a fixed-capacity queue, run one pairing pass per
// request, and publish the resulting simulation task. Backpressure is
// explicit: a full queue rejects the submission rather than blocking the
// caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
	"github.com/nikita-skobov/arena-multiplayer/internal/simulation"
)

const (
	// passTimeout bounds one pairing pass, listing and all claim attempts
	// included.
	passTimeout = 30 * time.Second

	// closeTimeout bounds how long Close waits for workers to drain the
	// queue before giving up.
	closeTimeout = 10 * time.Second
)

var (
	// ErrQueueFull is returned by Submit when the dispatch queue is at
	// capacity. The caller's availability record stays registered; a later
	// pass by another player can still claim it.
	ErrQueueFull = errors.New("matchmaking dispatch queue is full")
	// ErrDispatcherClosed is returned by Submit after Close has begun.
	ErrDispatcherClosed = errors.New("matchmaking dispatcher is closed")
	// ErrNilStore is returned when constructing a dispatcher without a store.
	ErrNilStore = errors.New("match store cannot be nil")
	// ErrNilPublisher is returned when constructing a dispatcher without a publisher.
	ErrNilPublisher = errors.New("task publisher cannot be nil")
	// ErrNilRoster is returned when constructing a dispatcher without a roster.
	ErrNilRoster = errors.New("synthetic opponent roster cannot be nil")
)

type (
	// MatchStore is the slice of the matchmaking store a pairing pass needs.
	MatchStore interface {
		ListCandidates(ctx context.Context, turnNumber uint32) ([]matchmaking.Skey, error)
		AttemptMatch(ctx context.Context, turnNumber uint32, p1, p2 matchmaking.Skey) matchmaking.MatchResult
	}

	// Stats is a point-in-time snapshot of dispatcher counters, exposed on
	// the health endpoint.
	Stats struct {
		Submitted     uint64 `json:"submitted"`
		Matched       uint64 `json:"matched"`
		Dropped       uint64 `json:"dropped"`
		FakeSimulated uint64 `json:"fake_simulated"` //nolint: tagliatelle
		Degraded      uint64 `json:"degraded"`
		Failures      uint64 `json:"failures"`
		QueueDepth    int    `json:"queue_depth"` //nolint: tagliatelle
	}

	// Dispatcher owns the queue and worker pool that turn accepted end-turn
	// registrations into simulation tasks.
	Dispatcher struct {
		store     MatchStore
		publisher simulation.TaskPublisher
		roster    *simulation.Roster
		logger    *slog.Logger

		queue chan matchmaking.AsyncRequest

		mu     sync.RWMutex // guards closed
		closed bool

		closeOnce sync.Once
		workers   sync.WaitGroup

		submitted atomic.Uint64
		matched   atomic.Uint64
		dropped   atomic.Uint64
		fakes     atomic.Uint64
		degraded  atomic.Uint64
		failures  atomic.Uint64
	}
)

// New creates a dispatcher and starts its worker pool.
func New(store MatchStore, publisher simulation.TaskPublisher, roster *simulation.Roster, cfg *Config, logger *slog.Logger) (*Dispatcher, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if publisher == nil {
		return nil, ErrNilPublisher
	}

	if roster == nil {
		return nil, ErrNilRoster
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher configuration: %w", err)
	}

	d := &Dispatcher{
		store:     store,
		publisher: publisher,
		roster:    roster,
		logger:    logger,
		queue:     make(chan matchmaking.AsyncRequest, cfg.QueueCapacity),
	}

	for range cfg.Workers {
		d.workers.Add(1)

		go d.work()
	}

	logger.Info("Matchmaking dispatcher started",
		slog.Int("workers", cfg.Workers),
		slog.Int("queue_capacity", cfg.QueueCapacity))

	return d, nil
}

// Submit queues one pairing request without blocking. A full queue returns
// ErrQueueFull and leaves the caller's availability record untouched.
func (d *Dispatcher) Submit(req matchmaking.AsyncRequest) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- req:
		d.submitted.Add(1)

		return nil
	default:
		return ErrQueueFull
	}
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted:     d.submitted.Load(),
		Matched:       d.matched.Load(),
		Dropped:       d.dropped.Load(),
		FakeSimulated: d.fakes.Load(),
		Degraded:      d.degraded.Load(),
		Failures:      d.failures.Load(),
		QueueDepth:    len(d.queue),
	}
}

// Close stops accepting submissions and waits for the workers to drain the
// queue, up to closeTimeout. It is safe to call multiple times.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.queue)

		done := make(chan struct{})

		go func() {
			d.workers.Wait()
			close(done)
		}()

		select {
		case <-done:
			d.logger.Info("Matchmaking dispatcher stopped")
		case <-time.After(closeTimeout):
			d.logger.Warn("Matchmaking dispatcher close timed out with work still in flight")
		}
	})

	return nil
}

// work drains the queue until it is closed and empty.
func (d *Dispatcher) work() {
	defer d.workers.Done()

	for req := range d.queue {
		d.process(req)
	}
}

// process runs one pairing pass and acts on its decision.
func (d *Dispatcher) process(req matchmaking.AsyncRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	result, err := matchmaking.AttemptMatchmaking(ctx, d.store, req, d.store.ListCandidates)
	if err != nil {
		d.failures.Add(1)
		d.logger.Error("Matchmaking pass failed",
			slog.Uint64("turn_number", uint64(req.TurnNumber)),
			slog.String("sort_key", req.Skey.String()),
			slog.String("error", err.Error()))

		return
	}

	switch result.Decision {
	case matchmaking.DecisionMatched:
		d.matched.Add(1)
		d.publish(ctx, simulation.NewVersusTask(req.TurnNumber, req.Skey, result.Opponent))
	case matchmaking.DecisionCanDrop:
		// A concurrent pass already claimed this player; nothing to enqueue.
		d.dropped.Add(1)
		d.logger.Debug("Pairing request already settled by a concurrent pass",
			slog.Uint64("turn_number", uint64(req.TurnNumber)),
			slog.String("sort_key", req.Skey.String()))
	case matchmaking.DecisionFakeSimulate:
		d.fakes.Add(1)

		if result.Degraded {
			d.degraded.Add(1)
			d.logger.Error("Matchmaking degraded to a synthetic opponent",
				slog.Uint64("turn_number", uint64(req.TurnNumber)),
				slog.String("sort_key", req.Skey.String()),
				slog.String("reason", result.Reason))
		}

		d.publish(ctx, simulation.NewSyntheticTask(req.TurnNumber, req.Skey, d.roster.Pick(), result.Degraded, result.Reason))
	}
}

// publish hands one task to the queue and counts a failure when it is lost.
func (d *Dispatcher) publish(ctx context.Context, task simulation.Task) {
	if err := d.publisher.Publish(ctx, task); err != nil {
		d.failures.Add(1)
		d.logger.Error("Failed to publish simulation task",
			slog.String("task_id", task.ID),
			slog.Uint64("turn_number", uint64(task.TurnNumber)),
			slog.String("error", err.Error()))
	}
}
