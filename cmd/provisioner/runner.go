package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

const (
	// connectTimeout bounds the startup connectivity probe.
	connectTimeout = 10 * time.Second

	// operationTimeout bounds one provisioning command, including the
	// waiter that polls until the table settles.
	operationTimeout = 5 * time.Minute
)

// ErrNotDynamoDriver is returned when the configured storage driver has no
// table to provision.
var ErrNotDynamoDriver = errors.New("provisioner requires the dynamodb storage driver")

type (
	// TableRunner defines the interface for managing the matchmaking table
	TableRunner interface {
		// Up creates the matchmaking table if it does not exist
		Up() error

		// Down deletes the matchmaking table (destructive operation)
		Down() error

		// Status shows the current table status
		Status() error
	}

	// tableRunner implements TableRunner against the DynamoDB control plane
	tableRunner struct {
		config *storage.Config
		client *dynamodb.Client
	}
)

// Ensure we implement the interface at compile time
var _ TableRunner = (*tableRunner)(nil)

// NewTableRunner creates a new table runner with the given configuration
func NewTableRunner(config *storage.Config) (TableRunner, error) {
	log.Printf("Initializing table runner with config: %s", config.String())

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if config.Driver != storage.DriverDynamoDB {
		return nil, fmt.Errorf("%w: got %q", ErrNotDynamoDriver, config.Driver)
	}

	client := storage.NewDynamoClient(config)

	// Probe connectivity so command failures mean the command, not the wiring
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return nil, fmt.Errorf("failed to reach DynamoDB: %w", err)
	}

	log.Println("DynamoDB connection established successfully")

	return &tableRunner{
		config: config,
		client: client,
	}, nil
}

// Up creates the matchmaking table and blocks until it is ACTIVE.
// An existing table is not an error: re-running up is a no-op.
func (r *tableRunner) Up() error {
	log.Printf("Creating matchmaking table %q...", r.config.TableName)

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	_, err := r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.config.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(r.config.PartitionKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(r.config.SortKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(r.config.PartitionKeyAttribute), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(r.config.SortKeyAttribute), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			log.Println("Table already exists, nothing to apply")

			return nil
		}

		return fmt.Errorf("table creation failed: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.config.TableName),
	}, operationTimeout); err != nil {
		return fmt.Errorf("table did not become active: %w", err)
	}

	log.Println("Table created successfully")

	return nil
}

// Down deletes the matchmaking table and blocks until it is gone.
// A missing table is not an error: re-running down is a no-op.
func (r *tableRunner) Down() error {
	log.Printf("WARNING: Deleting matchmaking table %q...", r.config.TableName)

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	_, err := r.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(r.config.TableName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			log.Println("Table does not exist, nothing to delete")

			return nil
		}

		return fmt.Errorf("table deletion failed: %w", err)
	}

	waiter := dynamodb.NewTableNotExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.config.TableName),
	}, operationTimeout); err != nil {
		return fmt.Errorf("table was not fully deleted: %w", err)
	}

	log.Println("Table deleted successfully")

	return nil
}

// Status shows the current table status
func (r *tableRunner) Status() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	out, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.config.TableName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			fmt.Printf("Table Status: %q does not exist (run 'up' to create it)\n", r.config.TableName)

			return nil
		}

		return fmt.Errorf("failed to describe table: %w", err)
	}

	fmt.Printf("Table Status: %s (%s)\n", aws.ToString(out.Table.TableName), out.Table.TableStatus)
	fmt.Printf("Item Count: %d\n", aws.ToInt64(out.Table.ItemCount))

	if out.Table.BillingModeSummary != nil {
		fmt.Printf("Billing Mode: %s\n", out.Table.BillingModeSummary.BillingMode)
	}

	return nil
}
