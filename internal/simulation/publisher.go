package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
)

const (
	defaultTopic        = "simulation-tasks"
	defaultBatchTimeout = 100 * time.Millisecond
)

type (
	// TaskPublisher hands finished tasks to the simulation queue. The
	// dispatcher treats publish failures as terminal for the task; there are
	// no in-band retries.
	TaskPublisher interface {
		Publish(ctx context.Context, task Task) error
	}

	// QueueConfig holds task queue connection settings.
	QueueConfig struct {
		Brokers []string
		Topic   string
	}

	// KafkaPublisher writes tasks to a Kafka topic. Messages are keyed by the
	// player's sort key so one player's tasks keep partition affinity.
	KafkaPublisher struct {
		writer *kafka.Writer
		logger *slog.Logger
	}

	// LogPublisher records tasks in the service log instead of a queue. It
	// keeps local development runnable when no brokers are configured.
	LogPublisher struct {
		logger *slog.Logger
	}
)

// LoadQueueConfig loads task queue configuration from environment variables.
// An empty broker list selects the LogPublisher fallback.
func LoadQueueConfig() *QueueConfig {
	return &QueueConfig{
		Brokers: config.ParseCommaSeparatedList(config.GetEnvStr("ARENA_KAFKA_BROKERS", "")),
		Topic:   config.GetEnvStr("ARENA_KAFKA_TOPIC", defaultTopic),
	}
}

// NewPublisher selects the publisher implementation for the configuration:
// Kafka when brokers are configured, the log fallback otherwise.
func NewPublisher(cfg *QueueConfig, logger *slog.Logger) TaskPublisher {
	if len(cfg.Brokers) == 0 {
		logger.Warn("No task queue brokers configured - simulation tasks will be logged only")

		return NewLogPublisher(logger)
	}

	return NewKafkaPublisher(cfg, logger)
}

// NewKafkaPublisher creates a publisher backed by a Kafka writer.
func NewKafkaPublisher(cfg *QueueConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: defaultBatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish writes one task to the topic, keyed by the player's sort key.
func (p *KafkaPublisher) Publish(ctx context.Context, task Task) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode simulation task %s: %w", task.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(task.Player),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish simulation task %s: %w", task.ID, err)
	}

	return nil
}

// Close flushes and closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close task queue writer: %w", err)
	}

	return nil
}

// NewLogPublisher creates the log-only fallback publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish records the task in the service log.
func (p *LogPublisher) Publish(_ context.Context, task Task) error {
	p.logger.Info("Simulation task ready",
		slog.String("task_id", task.ID),
		slog.Uint64("turn_number", uint64(task.TurnNumber)),
		slog.String("player", task.Player),
		slog.String("opponent", task.Opponent),
		slog.Bool("synthetic", task.Synthetic),
		slog.Bool("degraded", task.Degraded),
	)

	return nil
}
