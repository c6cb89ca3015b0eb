// Package dynamodb stores graph snapshots in a single DynamoDB table. Each
// user owns one item keyed PK=USER#<username>, SK=GRAPH#CURRENT holding the
// encoded node/edge document.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/infrastructure/persistence"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	entityType     = "SNAPSHOT"
	currentGraphSK = "GRAPH#CURRENT"
)

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type itemKey struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

// snapshotItem is the stored item
type snapshotItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	Username    string `dynamodbav:"Username"`
	Document    string `dynamodbav:"Document"`
	NodeCount   int    `dynamodbav:"NodeCount"`
	EdgeCount   int    `dynamodbav:"EdgeCount"`
	LastUpdated string `dynamodbav:"LastUpdated"`
	Revision    int64  `dynamodbav:"Revision"`
}

// SnapshotRepository implements ports.SnapshotRepository on DynamoDB
type SnapshotRepository struct {
	client    Client
	tableName string
	clock     ports.Clock
	logger    *zap.Logger
}

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a repository over tableName
func NewSnapshotRepository(client Client, tableName string, clock ports.Clock, logger *zap.Logger) *SnapshotRepository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SnapshotRepository{client: client, tableName: tableName, clock: clock, logger: logger}
}

// Save replaces the user's snapshot. A save never overwrites one stamped
// later; that case is reported as a save conflict.
func (r *SnapshotRepository) Save(ctx context.Context, username string, g *aggregates.Graph) (time.Time, error) {
	doc, err := persistence.Encode(g)
	if err != nil {
		return time.Time{}, err
	}
	now := r.clock.Now().UTC()
	stamp := now.Format(persistence.StampLayout)

	key, err := attributevalue.MarshalMap(itemKey{PK: pk(username), SK: currentGraphSK})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal key: %w", err)
	}

	update := expression.Set(expression.Name("EntityType"), expression.Value(entityType)).
		Set(expression.Name("Username"), expression.Value(username)).
		Set(expression.Name("Document"), expression.Value(string(doc))).
		Set(expression.Name("NodeCount"), expression.Value(g.NodeCount())).
		Set(expression.Name("EdgeCount"), expression.Value(g.EdgeCount())).
		Set(expression.Name("LastUpdated"), expression.Value(stamp)).
		Add(expression.Name("Revision"), expression.Value(1))
	condition := expression.Name("PK").AttributeNotExists().
		Or(expression.Name("LastUpdated").LessThanEqual(expression.Value(stamp)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return time.Time{}, classify("save snapshot", err)
	}

	r.logger.Debug("Snapshot saved",
		zap.String("username", username),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()))
	return now, nil
}

// Load reads the user's snapshot
func (r *SnapshotRepository) Load(ctx context.Context, username string) (ports.StoredSnapshot, bool, error) {
	key, err := attributevalue.MarshalMap(itemKey{PK: pk(username), SK: currentGraphSK})
	if err != nil {
		return ports.StoredSnapshot{}, false, fmt.Errorf("failed to marshal key: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ports.StoredSnapshot{}, false, classify("load snapshot", err)
	}
	if out.Item == nil {
		return ports.StoredSnapshot{}, false, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return ports.StoredSnapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	g, err := persistence.Decode([]byte(item.Document))
	if err != nil {
		return ports.StoredSnapshot{}, false, err
	}
	updated, err := time.Parse(persistence.StampLayout, item.LastUpdated)
	if err != nil {
		r.logger.Warn("Snapshot has an unreadable timestamp", zap.String("username", username), zap.Error(err))
	}
	return ports.StoredSnapshot{Graph: g, LastUpdated: updated}, true, nil
}

func pk(username string) string {
	return "USER#" + username
}

// classify maps DynamoDB API errors onto application error kinds
func classify(operation string, err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return pkgerrors.NewNetworkFailure("failed to "+operation, err)
	}
	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException":
		return pkgerrors.NewSaveConflict("a newer snapshot is already stored")
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return pkgerrors.NewNetworkFailure("DynamoDB throughput exceeded during "+operation, err)
	default:
		return pkgerrors.NewInternal("failed to "+operation, err)
	}
}
