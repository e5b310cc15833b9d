package dispatch

import (
	"errors"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
)

const (
	defaultWorkers       = 4
	defaultQueueCapacity = 256
)

var (
	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("dispatch worker count must be positive")
	// ErrInvalidQueueCapacity is returned when the queue capacity is not positive.
	ErrInvalidQueueCapacity = errors.New("dispatch queue capacity must be positive")
)

// Config holds dispatcher sizing with production-ready defaults.
type Config struct {
	Workers       int
	QueueCapacity int
}

// LoadConfig loads dispatcher configuration from environment variables with
// fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		Workers:       config.GetEnvInt("ARENA_DISPATCH_WORKERS", defaultWorkers),
		QueueCapacity: config.GetEnvInt("ARENA_DISPATCH_QUEUE_CAPACITY", defaultQueueCapacity),
	}
}

// Validate checks if the dispatcher configuration is valid.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.QueueCapacity <= 0 {
		return ErrInvalidQueueCapacity
	}

	return nil
}
