package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
	"github.com/nikita-skobov/arena-multiplayer/internal/dispatch"
	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

// Dispatcher queues asynchronous matchmaking passes triggered by end-turn
// registrations. A nil Dispatcher disables background pairing; clients then
// drive pairing themselves through POST /api/v1/matchmaking/run.
type Dispatcher interface {
	Submit(req matchmaking.AsyncRequest) error
	Stats() dispatch.Stats
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)

// Server represents the HTTP API server.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	config      *ServerConfig
	startTime   time.Time
	matchStore  matchmaking.Store
	dispatcher  Dispatcher
	keyStore    middleware.KeyStore
	rateLimiter middleware.RateLimiter
}

// NewServer creates a new HTTP server instance with structured logging and middleware stack.
//
// Dependencies are injected explicitly rather than being part of ServerConfig.
// This follows the dependency injection pattern where configuration (what) is
// separated from dependencies (how).
//
// Parameters:
//   - cfg: Pure server configuration (ports, timeouts, CORS settings)
//   - keyStore: Game key storage implementation (nil disables authentication)
//   - rateLimiter: Rate limiter implementation (nil disables rate limiting)
//   - matchStore: Matchmaking record storage (nil degrades health checks and
//     fails matchmaking endpoints)
//   - dispatcher: Background pairing dispatcher (nil disables automatic
//     pairing on end-turn)
func NewServer(
	cfg *ServerConfig,
	keyStore middleware.KeyStore,
	rateLimiter middleware.RateLimiter,
	matchStore matchmaking.Store,
	dispatcher Dispatcher,
) *Server {
	// Create structured logger with configured log level
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// Create base HTTP mux
	mux := http.NewServeMux()

	// Create server instance for route setup
	server := &Server{
		logger:      logger,
		config:      cfg,
		matchStore:  matchStore,
		dispatcher:  dispatcher,
		keyStore:    keyStore,
		rateLimiter: rateLimiter,
	}

	// Set up all API routes
	server.setupRoutes(mux)

	// Log middleware configuration
	if keyStore != nil { // pragma: allowlist secret
		logger.Info("Game key authentication middleware enabled")
	} else {
		logger.Warn("KeyStore not configured - game key authentication middleware disabled")
	}

	if rateLimiter != nil {
		logger.Info("Rate limiting middleware enabled")
	} else {
		logger.Warn("RateLimiter not configured - rate limiting middleware disabled")
	}

	if matchStore == nil {
		logger.Warn("Match store not configured - matchmaking endpoints will fail")
	}

	if dispatcher == nil {
		logger.Warn("Dispatcher not configured - end-turn registrations will not trigger pairing passes")
	}

	// Apply middleware chain using functional options pattern.
	// Middleware executes in the order listed (top-to-bottom):
	//   1. CorrelationID - generate correlation ID for all responses
	//   2. Recovery - catch panics in all downstream middleware
	//   3. CORS - headers must reach browsers on rejections too, so CORS
	//      runs before auth and rate limiting; preflights short-circuit here
	//   4. Game Key Auth - identify game client and set KeyContext (optional)
	//   5. RateLimit - block requests before expensive operations (optional)
	//   6. RequestLogger - log only legitimate requests (not rate-limited spam)
	handler := middleware.Apply(mux,
		middleware.WithCorrelationID(),
		middleware.WithRecovery(logger),
		middleware.WithCORS(cfg.ToCORSConfig()),
		middleware.WithGameKeyAuth(keyStore, logger),
		middleware.WithRateLimit(rateLimiter, logger),
		middleware.WithRequestLogger(logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Set the httpServer field for the existing server instance
	server.httpServer = httpServer

	return server
}

// Start starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT and SIGTERM signals.
func (s *Server) Start() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	// Record server start time for uptime calculation
	s.startTime = time.Now()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		s.logger.Info("Starting Arena API server",
			slog.String("address", s.config.Address()),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server failed to start",
				slog.String("address", s.config.Address()),
				slog.String("error", err.Error()),
			)

			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		return err
	case sig := <-stop:
		s.logger.Info("Received shutdown signal",
			slog.String("signal", sig.String()),
		)

		return s.shutdown()
	}
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Initiating server shutdown",
		slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
	)

	// Attempt graceful shutdown of HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed",
			slog.String("error", err.Error()),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Close the dispatcher first so queued pairing passes drain before the
	// stores they write to are released
	if s.dispatcher != nil {
		s.logger.Info("Closing dispatcher")

		if d, ok := s.dispatcher.(io.Closer); ok {
			if err := d.Close(); err != nil {
				s.logger.Error("Failed to close dispatcher", slog.String("error", err.Error()))
			} else {
				s.logger.Info("Dispatcher closed successfully")
			}
		}
	}

	// Close game key store to release database connections
	if s.keyStore != nil { // pragma: allowlist secret
		s.logger.Info("Closing game key store")

		if store, ok := s.keyStore.(io.Closer); ok {
			if err := store.Close(); err != nil {
				s.logger.Error("Failed to close game key store", slog.String("error", err.Error()))
			} else {
				s.logger.Info("Game key store closed successfully")
			}
		}
	}

	// Close rate limiter to stop (InMemoryRateLimiter) background cleanup goroutines
	if s.rateLimiter != nil {
		s.logger.Info("Closing rate limiter")

		if limiter, ok := s.rateLimiter.(io.Closer); ok {
			if err := limiter.Close(); err != nil {
				s.logger.Error("Failed to close rate limiter", slog.String("error", err.Error()))
			} else {
				s.logger.Info("Rate limiter closed successfully")
			}
		}
	}

	s.logger.Info("Server shutdown completed successfully")

	return nil
}
