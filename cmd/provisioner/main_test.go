package main

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// stubTableRunner records which commands were dispatched to it
type stubTableRunner struct {
	upCalls     int
	downCalls   int
	statusCalls int
	err         error
}

func (r *stubTableRunner) Up() error {
	r.upCalls++
	return r.err
}

func (r *stubTableRunner) Down() error {
	r.downCalls++
	return r.err
}

func (r *stubTableRunner) Status() error {
	r.statusCalls++
	return r.err
}

// withStdin replaces os.Stdin with a pipe carrying input for the duration of the test
func withStdin(t *testing.T, input string) {
	t.Helper()

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdin pipe: %v", err)
	}

	if _, err := writer.WriteString(input); err != nil {
		t.Fatalf("Failed to write stdin input: %v", err)
	}
	_ = writer.Close()

	original := os.Stdin
	os.Stdin = reader

	t.Cleanup(func() {
		os.Stdin = original
		_ = reader.Close()
	})
}

// TestExecuteCommand tests command dispatch including the down confirmation prompt
func TestExecuteCommand(t *testing.T) {
	t.Run("up dispatches to runner", func(t *testing.T) {
		runner := &stubTableRunner{}

		if err := executeCommand("up", runner); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if runner.upCalls != 1 {
			t.Errorf("Expected 1 up call, got %d", runner.upCalls)
		}
	})

	t.Run("status dispatches to runner", func(t *testing.T) {
		runner := &stubTableRunner{}

		if err := executeCommand("status", runner); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if runner.statusCalls != 1 {
			t.Errorf("Expected 1 status call, got %d", runner.statusCalls)
		}
	})

	t.Run("runner errors propagate", func(t *testing.T) {
		wantErr := errors.New("table creation failed")
		runner := &stubTableRunner{err: wantErr}

		if err := executeCommand("up", runner); !errors.Is(err, wantErr) {
			t.Errorf("Expected runner error to propagate, got %v", err)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		runner := &stubTableRunner{}

		err := executeCommand("sideways", runner)
		if err == nil {
			t.Fatal("Expected error for unknown command")
		}

		if !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("Expected 'unknown command' in error, got %v", err)
		}
	})

	t.Run("down proceeds with confirmation", func(t *testing.T) {
		withStdin(t, "y\n")

		runner := &stubTableRunner{}

		if err := executeCommand("down", runner); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if runner.downCalls != 1 {
			t.Errorf("Expected 1 down call, got %d", runner.downCalls)
		}
	})

	t.Run("down aborts without confirmation", func(t *testing.T) {
		withStdin(t, "n\n")

		runner := &stubTableRunner{}

		if err := executeCommand("down", runner); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if runner.downCalls != 0 {
			t.Errorf("Expected down to be cancelled, got %d calls", runner.downCalls)
		}
	})
}

// TestNewTableRunnerConfigValidation tests that bad configuration is rejected
// before any network calls are made
func TestNewTableRunnerConfigValidation(t *testing.T) {
	t.Run("memory driver is rejected", func(t *testing.T) {
		cfg := &storage.Config{
			Driver:                storage.DriverMemory,
			TableName:             "matchmaking",
			PartitionKeyAttribute: "pk",
			SortKeyAttribute:      "sk",
			Region:                "us-east-1",
		}

		_, err := NewTableRunner(cfg)
		if !errors.Is(err, ErrNotDynamoDriver) {
			t.Errorf("Expected ErrNotDynamoDriver, got %v", err)
		}
	})

	t.Run("empty table name is rejected", func(t *testing.T) {
		cfg := &storage.Config{
			Driver:                storage.DriverDynamoDB,
			TableName:             "",
			PartitionKeyAttribute: "pk",
			SortKeyAttribute:      "sk",
			Region:                "us-east-1",
		}

		if _, err := NewTableRunner(cfg); err == nil {
			t.Error("Expected validation error for empty table name")
		}
	})
}
