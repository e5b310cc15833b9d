package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nikita-skobov/arena-multiplayer/internal/matchmaking"
)

// conditionalCheckFailedCode is the per-item cancellation code DynamoDB
// reports when a transact item's condition expression fails.
const conditionalCheckFailedCode = "ConditionalCheckFailed"

var (
	// ErrNilDynamoClient is returned when a nil DynamoDB client is provided.
	ErrNilDynamoClient = errors.New("dynamo client cannot be nil")
	// ErrNilStoreConfig is returned when a nil store configuration is provided.
	ErrNilStoreConfig = errors.New("store config cannot be nil")
	// ErrMissingSortKey is returned when a stored record carries no string
	// sort key attribute.
	ErrMissingSortKey = errors.New("record is missing a string sort key attribute")
)

// DynamoMatchStore persists availability records in a DynamoDB table keyed by
// string partition and sort attributes. Records carry no payload beyond their
// composite key; the sort key itself encodes the player identity.
type DynamoMatchStore struct {
	client *dynamodb.Client
	table  string
	pkAttr string
	skAttr string
}

// Compile-time check that DynamoMatchStore implements the matchmaking store contract.
var _ matchmaking.Store = (*DynamoMatchStore)(nil)

// NewDynamoMatchStore creates a match store backed by the configured table.
func NewDynamoMatchStore(client *dynamodb.Client, cfg *Config) (*DynamoMatchStore, error) {
	if client == nil {
		return nil, ErrNilDynamoClient
	}

	if cfg == nil {
		return nil, ErrNilStoreConfig
	}

	return &DynamoMatchStore{
		client: client,
		table:  cfg.TableName,
		pkAttr: cfg.PartitionKeyAttribute,
		skAttr: cfg.SortKeyAttribute,
	}, nil
}

// EndTurn generates a fresh sort key for runID and registers it in the turn's
// partition. A key collision surfaces as the store's conditional-write error;
// it is never retried here.
func (s *DynamoMatchStore) EndTurn(ctx context.Context, turnNumber uint32, runID string) (matchmaking.Skey, error) {
	skey, err := matchmaking.NewSkey(runID)
	if err != nil {
		return matchmaking.Skey{}, err
	}

	if err := s.Register(ctx, turnNumber, skey); err != nil {
		return matchmaking.Skey{}, err
	}

	return skey, nil
}

// Register writes an availability record, conditional on no record already
// existing under the same composite key.
func (s *DynamoMatchStore) Register(ctx context.Context, turnNumber uint32, skey matchmaking.Skey) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     s.itemKey(turnNumber, skey),
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": s.pkAttr},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("%w: %s", matchmaking.ErrAlreadyRegistered, err.Error())
		}

		return fmt.Errorf("failed to register availability for turn %d: %w", turnNumber, err)
	}

	return nil
}

// ListCandidates returns one page of the turn's availability records in store
// order. LastEvaluatedKey is deliberately not followed.
func (s *DynamoMatchStore) ListCandidates(ctx context.Context, turnNumber uint32) ([]matchmaking.Skey, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": s.pkAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: matchmaking.PartitionForTurn(turnNumber)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates for turn %d: %w", turnNumber, err)
	}

	return parseCandidatePage(out.Items, s.skAttr)
}

// AttemptMatch claims p1 and p2 in one transaction of two conditional
// deletes. Every failure is folded into the MatchResult; a double condition
// failure resolves to the initiating player's.
func (s *DynamoMatchStore) AttemptMatch(ctx context.Context, turnNumber uint32, p1, p2 matchmaking.Skey) matchmaking.MatchResult {
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			s.claimDelete(turnNumber, p1),
			s.claimDelete(turnNumber, p2),
		},
	})
	if err != nil {
		return interpretTransactionFailure(err)
	}

	return matchmaking.Matched(p1, p2)
}

// RemoveRecord deletes one availability record unconditionally.
func (s *DynamoMatchStore) RemoveRecord(ctx context.Context, turnNumber uint32, skey matchmaking.Skey) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(turnNumber, skey),
	})
	if err != nil {
		return fmt.Errorf("failed to remove record for turn %d: %w", turnNumber, err)
	}

	return nil
}

// HealthCheck verifies the backing table is reachable and described.
func (s *DynamoMatchStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.table, err)
	}

	return nil
}

// itemKey builds the composite key map. Availability records are key-only, so
// the same map serves as a full item for writes.
func (s *DynamoMatchStore) itemKey(turnNumber uint32, skey matchmaking.Skey) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.pkAttr: &types.AttributeValueMemberS{Value: matchmaking.PartitionForTurn(turnNumber)},
		s.skAttr: &types.AttributeValueMemberS{Value: skey.String()},
	}
}

// claimDelete builds one transact item: the record must still exist for the
// claim to succeed, and a condition failure reports the old item so the
// cancellation is attributable.
func (s *DynamoMatchStore) claimDelete(turnNumber uint32, skey matchmaking.Skey) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName:                           aws.String(s.table),
			Key:                                 s.itemKey(turnNumber, skey),
			ConditionExpression:                 aws.String("attribute_exists(#pk)"),
			ExpressionAttributeNames:            map[string]string{"#pk": s.pkAttr},
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		},
	}
}

// parseCandidatePage decodes one query page preserving item order. A record
// without a string sort key, or with an unparseable one, fails the whole page.
func parseCandidatePage(items []map[string]types.AttributeValue, skAttr string) ([]matchmaking.Skey, error) {
	candidates := make([]matchmaking.Skey, 0, len(items))

	for _, item := range items {
		attr, ok := item[skAttr].(*types.AttributeValueMemberS)
		if !ok {
			return nil, ErrMissingSortKey
		}

		skey, err := matchmaking.ParseSkey(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candidate sort key: %w", err)
		}

		candidates = append(candidates, skey)
	}

	return candidates, nil
}

// interpretTransactionFailure folds a failed two-delete transaction into a
// MatchResult. Cancellation reasons are positional: index 0 is the initiating
// player, index 1 the candidate. Index 0 is inspected first, so a transaction
// in which both conditions failed resolves to the initiating player's
// failure. Anything that is not a cancellation keeps the store's error text.
func interpretTransactionFailure(err error) matchmaking.MatchResult {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return matchmaking.Unrecoverable(err.Error())
	}

	reasons := canceled.CancellationReasons

	if len(reasons) > 0 && isConditionFailure(reasons[0]) {
		return matchmaking.P1ConditionFailed()
	}

	if len(reasons) > 1 && isConditionFailure(reasons[1]) {
		return matchmaking.P2ConditionFailed()
	}

	return matchmaking.Unrecoverable(err.Error())
}

func isConditionFailure(reason types.CancellationReason) bool {
	return aws.ToString(reason.Code) == conditionalCheckFailedCode
}
