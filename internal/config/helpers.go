package config

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dynamoLocalImage = "amazon/dynamodb-local:2.5.2"
	dynamoLocalPort  = "8000/tcp"
	startUpTimeOut   = 120 * time.Second
	tableWaitTimeout = 30 * time.Second

	// TestTableName is the matchmaking table created inside the container.
	TestTableName = "matchmaking_test"

	// TestPartitionKeyAttribute and TestSortKeyAttribute match the store defaults.
	TestPartitionKeyAttribute = "pk"
	TestSortKeyAttribute      = "sk"
)

// TestTable encapsulates test store resources for cleanup.
// Used by integration tests across multiple packages to maintain consistent test infrastructure.
type TestTable struct {
	Container testcontainers.Container
	Client    *dynamodb.Client
	Name      string
	Endpoint  string
}

// SetupTestTable starts a DynamoDB Local container and creates the matchmaking table.
// This is the standard way to set up integration test stores across all packages.
//
// Usage:
//
//	func TestMyFeature(t *testing.T) {
//		if testing.Short() {
//			t.Skip("skipping integration test in short mode")
//		}
//		ctx := context.Background()
//		testTable := config.SetupTestTable(ctx, t)
//		t.Cleanup(func() {
//			_ = testcontainers.TerminateContainer(testTable.Container)
//		})
//		// ... your test code
//	}
//
// The function automatically:
//   - Starts an amazon/dynamodb-local container
//   - Waits for the endpoint to accept connections
//   - Creates the matchmaking table (string HASH + RANGE keys, on-demand billing)
//   - Returns a TestTable with a ready client
//
// Cleanup is the caller's responsibility using t.Cleanup().
func SetupTestTable(ctx context.Context, t *testing.T) *TestTable {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dynamoLocalImage,
			ExposedPorts: []string{dynamoLocalPort},
			WaitingFor:   wait.ForListeningPort(dynamoLocalPort).WithStartupTimeout(startUpTimeOut),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start dynamodb-local container")
	require.NotNil(t, container, "dynamodb-local container is nil")

	host, err := container.Host(ctx)
	require.NoError(t, err, "Failed to resolve container host")

	mappedPort, err := container.MappedPort(ctx, dynamoLocalPort)
	require.NoError(t, err, "Failed to resolve mapped port")

	endpoint := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	// DynamoDB Local accepts any non-empty static credentials.
	client := dynamodb.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
	})

	if err := createMatchmakingTable(ctx, client, TestTableName); err != nil {
		_ = testcontainers.TerminateContainer(container)

		t.Fatalf("Failed to create matchmaking table: %v", err)
	}

	return &TestTable{
		Container: container,
		Client:    client,
		Name:      TestTableName,
		Endpoint:  endpoint,
	}
}

// createMatchmakingTable provisions the composite-key table and blocks until it is ACTIVE.
func createMatchmakingTable(ctx context.Context, client *dynamodb.Client, name string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(TestPartitionKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(TestSortKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(TestPartitionKeyAttribute), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(TestSortKeyAttribute), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}

	return nil
}
