package storage

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewDynamoClient builds a DynamoDB client from the store configuration.
// A configured endpoint routes calls to DynamoDB Local; static credentials
// are applied only when both halves are present.
func NewDynamoClient(cfg *Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}

		if cfg.HasStaticCredentials() {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.secretAccessKey, "")
		}
	})
}
