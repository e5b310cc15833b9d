// Package main provides the Arena turn-based matchmaking service.
//
// Arena coordinates multiplayer pairing for turn-based games: game backends
// report end of turn, records land in a shared availability pool, and pairing
// passes match players of the same turn or fall back to synthetic opponents.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/nikita-skobov/arena-multiplayer/internal/api"
	"github.com/nikita-skobov/arena-multiplayer/internal/api/middleware"
	"github.com/nikita-skobov/arena-multiplayer/internal/config"
	"github.com/nikita-skobov/arena-multiplayer/internal/dispatch"
	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
	"github.com/nikita-skobov/arena-multiplayer/internal/simulation"
	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "arena"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("Starting Arena service",
		slog.String("service", name),
		slog.String("version", version),
	)

	logger.Info("Loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	// Load rate limiter configuration
	middlewareConfig := middleware.LoadConfig()

	// Create rate limiter instance (graceful shutdown handled by server.shutdown())
	rateLimiter := middleware.NewInMemoryRateLimiter(middlewareConfig)

	logger.Info("Rate limiter initialized",
		slog.Int("global_rps", middlewareConfig.GlobalRPS),
		slog.Int("global_burst", middlewareConfig.GlobalBurst),
		slog.Int("client_rps", middlewareConfig.ClientRPS),
		slog.Int("client_burst", middlewareConfig.ClientBurst),
		slog.Int("unauth_rps", middlewareConfig.UnAuthRPS),
		slog.Int("unauth_burst", middlewareConfig.UnAuthBurst),
	)

	// Load match store configuration
	storageConfig := storage.LoadConfig()
	if err := storageConfig.Validate(); err != nil {
		logger.Error("Invalid storage configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var matchStore matchmaking.Store

	switch storageConfig.Driver {
	case storage.DriverMemory:
		logger.Warn("Using in-memory match store",
			slog.String("note", "Availability records are process-local and vanish on restart; use for development only"),
		)

		matchStore = storage.NewMemoryMatchStore()
	case storage.DriverDynamoDB:
		client := storage.NewDynamoClient(storageConfig)

		dynamoStore, err := storage.NewDynamoMatchStore(client, storageConfig)
		if err != nil {
			logger.Error("Failed to create match store", slog.String("error", err.Error()))
			os.Exit(1)
		}

		matchStore = dynamoStore
	}

	logger.Info("Match store initialized", slog.String("storage", storageConfig.String()))

	var keyStore middleware.KeyStore

	authEnabled := config.GetEnvBool("ARENA_AUTH_ENABLED", false)
	if authEnabled {
		gameKeyStore := storage.NewInMemoryGameKeyStore()

		seedKeys := config.ParseCommaSeparatedList(config.GetEnvStr("ARENA_API_KEYS", ""))
		if err := gameKeyStore.SeedPlaintextKeys(context.Background(), seedKeys); err != nil {
			logger.Error("Failed to seed game keys", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if gameKeyStore.Count() == 0 {
			logger.Warn("Game key authentication enabled with no seeded keys",
				slog.String("note", "Every request to a protected endpoint will be rejected; set ARENA_API_KEYS"),
			)
		}

		keyStore = gameKeyStore

		logger.Info("Game key authentication enabled",
			slog.Int("seeded_keys", gameKeyStore.Count()),
		)
	} else {
		logger.Warn("Game key authentication disabled",
			slog.String("security", "Only use in trusted networks (localhost, VPN, internal)"),
			slog.String("note", "Set ARENA_AUTH_ENABLED=true to enable game key authentication"),
		)
	}

	// Simulation task queue: Kafka when brokers are configured, log fallback otherwise.
	queueConfig := simulation.LoadQueueConfig()
	publisher := simulation.NewPublisher(queueConfig, logger)

	defer func() {
		if closer, ok := publisher.(io.Closer); ok {
			_ = closer.Close() // Flush queued simulation tasks on normal shutdown
		}
	}()

	roster := simulation.LoadRosterFromEnv()

	logger.Info("Synthetic opponent roster loaded",
		slog.Int("opponents", len(roster.Opponents)),
	)

	dispatchConfig := dispatch.LoadConfig()

	dispatcher, err := dispatch.New(matchStore, publisher, roster, dispatchConfig, logger)
	if err != nil {
		logger.Error("Failed to start matchmaking dispatcher", slog.String("error", err.Error()))
		//nolint:gocritic // Explicit cleanup before os.Exit is intentional (defer won't run)
		os.Exit(1)
	}

	server := api.NewServer(serverConfig, keyStore, rateLimiter, matchStore, dispatcher)

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("Arena service stopped")
}
