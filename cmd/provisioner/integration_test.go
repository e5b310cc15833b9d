package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/testcontainers/testcontainers-go"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// TestTableRunnerIntegration tests the complete provisioning workflow against
// a real DynamoDB Local container: up, idempotent up, status, down, and
// idempotent down.
func TestTableRunnerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// The harness creates its own table; the runner manages a separate one
	// on the same container so creation is exercised from scratch.
	testTable := config.SetupTestTable(ctx, t)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(testTable.Container)
	})

	const provisionedTable = "matchmaking_provisioner_test"

	t.Setenv("ARENA_TABLE_NAME", provisionedTable)
	t.Setenv("ARENA_DYNAMODB_ENDPOINT", testTable.Endpoint)
	t.Setenv("ARENA_AWS_REGION", "us-east-1")
	t.Setenv("ARENA_AWS_ACCESS_KEY_ID", "test")
	t.Setenv("ARENA_AWS_SECRET_ACCESS_KEY", "test")

	runner, err := NewTableRunner(storage.LoadConfig())
	if err != nil {
		t.Fatalf("Failed to create table runner: %v", err)
	}

	describe := func() (*dynamodb.DescribeTableOutput, error) {
		return testTable.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(provisionedTable),
		})
	}

	// Status before the table exists must not be an error
	if err := runner.Status(); err != nil {
		t.Fatalf("Status on a missing table failed: %v", err)
	}

	// Up creates the table and waits for ACTIVE
	if err := runner.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	out, err := describe()
	if err != nil {
		t.Fatalf("Table was not created: %v", err)
	}

	if out.Table.TableStatus != types.TableStatusActive {
		t.Errorf("Expected ACTIVE table, got %s", out.Table.TableStatus)
	}

	// Second up is a no-op, not an error
	if err := runner.Up(); err != nil {
		t.Fatalf("Idempotent up failed: %v", err)
	}

	if err := runner.Status(); err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	// Down deletes the table and waits until it is gone
	if err := runner.Down(); err != nil {
		t.Fatalf("Down failed: %v", err)
	}

	if _, err := describe(); err == nil {
		t.Fatal("Expected the table to be deleted")
	} else {
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			t.Fatalf("Expected ResourceNotFoundException, got %v", err)
		}
	}

	// Second down is a no-op, not an error
	if err := runner.Down(); err != nil {
		t.Fatalf("Idempotent down failed: %v", err)
	}
}
