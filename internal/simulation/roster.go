package simulation

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
)

// DefaultConfigPath is the default location for the arena configuration file.
const DefaultConfigPath = ".arena.yaml"

// ConfigPathEnvVar is the environment variable name for a custom config path.
const ConfigPathEnvVar = "ARENA_CONFIG_PATH"

// defaultOpponents is the built-in roster used when no configuration file
// provides one. Synthetic matches must always be possible, so the roster can
// never be empty.
var defaultOpponents = []string{ //nolint: gochecknoglobals
	"training-dummy",
	"practice-bot",
	"arena-golem",
	"sparring-partner",
}

// Roster holds the synthetic opponent names loaded from .arena.yaml.
type Roster struct {
	//nolint: tagliatelle // snake_case is intentional for YAML config files
	Opponents []string `yaml:"synthetic_opponents"`
}

// LoadRoster loads the synthetic opponent roster from a YAML file.
//
// Missing files, unreadable files, and invalid YAML all degrade to the
// built-in roster rather than failing: a roster is required for synthetic
// matches, but configuring one is optional.
func LoadRoster(path string) *Roster {
	data, err := os.ReadFile(path) //nolint: gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Roster file not found, using built-in synthetic opponents",
				slog.String("path", path))

			return &Roster{Opponents: defaultOpponents}
		}

		slog.Warn("Failed to read roster file, using built-in synthetic opponents",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return &Roster{Opponents: defaultOpponents}
	}

	roster := &Roster{}
	if err := yaml.Unmarshal(data, roster); err != nil {
		slog.Warn("Failed to parse roster file, using built-in synthetic opponents",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return &Roster{Opponents: defaultOpponents}
	}

	if len(roster.Opponents) == 0 {
		return &Roster{Opponents: defaultOpponents}
	}

	return roster
}

// LoadRosterFromEnv loads the roster from the path in ARENA_CONFIG_PATH,
// falling back to ".arena.yaml" in the current directory.
func LoadRosterFromEnv() *Roster {
	path := config.GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadRoster(path)
}

// Pick chooses one synthetic opponent uniformly at random.
func (r *Roster) Pick() string {
	return r.Opponents[rand.IntN(len(r.Opponents))]
}
