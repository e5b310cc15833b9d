package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nikita-skobov/arena-multiplayer/internal/config"
)

// Storage driver names selectable through ARENA_STORAGE_DRIVER.
const (
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

const (
	defaultTableName    = "mygametable2025"
	defaultPartitionKey = "pk"
	defaultSortKey      = "sk"
	defaultRegion       = "us-east-1"

	accessKeyPrefixLen = 4
)

var (
	// ErrTableNameEmpty is returned when the table name is an empty string.
	ErrTableNameEmpty = errors.New("table name cannot be empty")
	// ErrRegionEmpty is returned when the region is an empty string.
	ErrRegionEmpty = errors.New("region cannot be empty")
	// ErrKeyAttributeEmpty is returned when a key attribute name is an empty string.
	ErrKeyAttributeEmpty = errors.New("key attribute names cannot be empty")
	// ErrUnknownDriver is returned when the storage driver is not recognized.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Config holds matchmaking store configuration with production-ready defaults.
type Config struct {
	Driver                string // DriverDynamoDB or DriverMemory
	TableName             string
	PartitionKeyAttribute string
	SortKeyAttribute      string
	Region                string
	Endpoint              string // non-empty for DynamoDB Local / CI
	AccessKeyID           string
	secretAccessKey       string
}

// LoadConfig loads store configuration from environment variables with
// fallback to defaults. Credentials fall back to the standard AWS variables
// so deployments that already export them need no extra wiring.
func LoadConfig() *Config {
	return &Config{
		Driver:                config.GetEnvStr("ARENA_STORAGE_DRIVER", DriverDynamoDB),
		TableName:             config.GetEnvStr("ARENA_TABLE_NAME", defaultTableName),
		PartitionKeyAttribute: config.GetEnvStr("ARENA_PARTITION_KEY_ATTRIBUTE", defaultPartitionKey),
		SortKeyAttribute:      config.GetEnvStr("ARENA_SORT_KEY_ATTRIBUTE", defaultSortKey),
		Region:                config.GetEnvStr("ARENA_AWS_REGION", config.GetEnvStr("AWS_REGION", defaultRegion)),
		Endpoint:              config.GetEnvStr("ARENA_DYNAMODB_ENDPOINT", ""),
		AccessKeyID:           config.GetEnvStr("ARENA_AWS_ACCESS_KEY_ID", config.GetEnvStr("AWS_ACCESS_KEY_ID", "")),
		secretAccessKey:       config.GetEnvStr("ARENA_AWS_SECRET_ACCESS_KEY", config.GetEnvStr("AWS_SECRET_ACCESS_KEY", "")), // secretAccessKey is private for obvious reasons.
	}
}

// Validate checks if the store configuration is valid.
func (c *Config) Validate() error {
	if c.Driver != DriverDynamoDB && c.Driver != DriverMemory {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}

	if strings.TrimSpace(c.TableName) == "" {
		return ErrTableNameEmpty
	}

	if strings.TrimSpace(c.PartitionKeyAttribute) == "" || strings.TrimSpace(c.SortKeyAttribute) == "" {
		return ErrKeyAttributeEmpty
	}

	if c.Driver == DriverDynamoDB && strings.TrimSpace(c.Region) == "" {
		return ErrRegionEmpty
	}

	return nil
}

// HasStaticCredentials reports whether both halves of a static credential
// pair were configured.
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.secretAccessKey != ""
}

// MaskAccessKeyID returns an access key ID safe for logging.
func (c *Config) MaskAccessKeyID() string {
	if c.AccessKeyID == "" {
		return ""
	}

	if len(c.AccessKeyID) <= accessKeyPrefixLen {
		return strings.Repeat("*", len(c.AccessKeyID))
	}

	return c.AccessKeyID[:accessKeyPrefixLen] + strings.Repeat("*", len(c.AccessKeyID)-accessKeyPrefixLen)
}

// String returns a log-safe description of the configuration.
func (c *Config) String() string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = "aws"
	}

	return fmt.Sprintf("driver=%s table=%s pk=%s sk=%s region=%s endpoint=%s access_key=%s",
		c.Driver, c.TableName, c.PartitionKeyAttribute, c.SortKeyAttribute, c.Region, endpoint, c.MaskAccessKeyID())
}
