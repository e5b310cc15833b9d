package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRosterFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadRoster(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Run("reads opponents from yaml", func(t *testing.T) {
		path := writeRosterFile(t, "synthetic_opponents:\n  - goblin\n  - skeleton\n")

		roster := LoadRoster(path)
		assert.Equal(t, []string{"goblin", "skeleton"}, roster.Opponents)
	})

	t.Run("missing file falls back to built-in roster", func(t *testing.T) {
		roster := LoadRoster(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
		assert.Equal(t, defaultOpponents, roster.Opponents)
	})

	t.Run("invalid yaml falls back to built-in roster", func(t *testing.T) {
		path := writeRosterFile(t, "synthetic_opponents: [unclosed")

		roster := LoadRoster(path)
		assert.Equal(t, defaultOpponents, roster.Opponents)
	})

	t.Run("empty opponent list falls back to built-in roster", func(t *testing.T) {
		path := writeRosterFile(t, "synthetic_opponents: []\n")

		roster := LoadRoster(path)
		assert.Equal(t, defaultOpponents, roster.Opponents)
	})
}

func TestLoadRosterFromEnv(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeRosterFile(t, "synthetic_opponents:\n  - env-golem\n")
	t.Setenv(ConfigPathEnvVar, path)

	roster := LoadRosterFromEnv()
	assert.Equal(t, []string{"env-golem"}, roster.Opponents)
}

func TestRosterPick(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Run("single opponent is always picked", func(t *testing.T) {
		roster := &Roster{Opponents: []string{"only-one"}}

		for range 10 {
			assert.Equal(t, "only-one", roster.Pick())
		}
	})

	t.Run("picks stay within the roster", func(t *testing.T) {
		roster := &Roster{Opponents: []string{"a", "b", "c"}}

		for range 50 {
			assert.Contains(t, roster.Opponents, roster.Pick())
		}
	})
}
