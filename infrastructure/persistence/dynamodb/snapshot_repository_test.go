package dynamodb

import (
	"context"
	"testing"
	"time"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/infrastructure/persistence"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	item      map[string]types.AttributeValue
	getErr    error
	updateErr error
	updates   []*dynamodb.UpdateItemInput
	gets      []*dynamodb.GetItemInput
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.item}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestSnapshotRepository_Save(t *testing.T) {
	client := &fakeClient{}
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	repo := NewSnapshotRepository(client, "diary", fixedClock{at}, zap.NewNop())

	stamp, err := repo.Save(context.Background(), "alice", aggregates.StarterGraph())
	require.NoError(t, err)
	assert.Equal(t, at, stamp)

	require.Len(t, client.updates, 1)
	in := client.updates[0]
	assert.Equal(t, "diary", *in.TableName)

	var key itemKey
	require.NoError(t, attributevalue.UnmarshalMap(in.Key, &key))
	assert.Equal(t, itemKey{PK: "USER#alice", SK: "GRAPH#CURRENT"}, key)
	assert.NotNil(t, in.ConditionExpression)
	assert.Contains(t, *in.UpdateExpression, "ADD")

	var sawDocument bool
	for _, v := range in.ExpressionAttributeValues {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if g, err := persistence.Decode([]byte(s.Value)); err == nil {
			sawDocument = true
			assert.Equal(t, 3, g.NodeCount())
		}
	}
	assert.True(t, sawDocument, "document is written as a JSON string")
}

func TestSnapshotRepository_Load(t *testing.T) {
	doc, err := persistence.Encode(aggregates.StarterGraph())
	require.NoError(t, err)
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	item, err := attributevalue.MarshalMap(snapshotItem{
		PK: "USER#alice", SK: currentGraphSK, EntityType: entityType, Username: "alice",
		Document: string(doc), NodeCount: 3, EdgeCount: 2,
		LastUpdated: at.Format(persistence.StampLayout), Revision: 7,
	})
	require.NoError(t, err)

	client := &fakeClient{item: item}
	repo := NewSnapshotRepository(client, "diary", nil, zap.NewNop())

	snap, found, err := repo.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at, snap.LastUpdated)
	assert.Equal(t, 2, snap.Graph.EdgeCount())
	assert.True(t, *client.gets[0].ConsistentRead)
}

func TestSnapshotRepository_LoadMissing(t *testing.T) {
	repo := NewSnapshotRepository(&fakeClient{}, "diary", nil, zap.NewNop())
	_, found, err := repo.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pkgerrors.ErrorType
	}{
		{"conditional", &smithy.GenericAPIError{Code: "ConditionalCheckFailedException"}, pkgerrors.ErrorTypeSaveConflict},
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException"}, pkgerrors.ErrorTypeNetworkFailure},
		{"missing table", &smithy.GenericAPIError{Code: "ResourceNotFoundException"}, pkgerrors.ErrorTypeInternal},
		{"transport", context.DeadlineExceeded, pkgerrors.ErrorTypeNetworkFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.TypeOf(classify("save snapshot", tt.err)))
		})
	}
}

func TestSnapshotRepository_SaveConflict(t *testing.T) {
	client := &fakeClient{updateErr: &smithy.GenericAPIError{Code: "ConditionalCheckFailedException"}}
	repo := NewSnapshotRepository(client, "diary", nil, zap.NewNop())
	_, err := repo.Save(context.Background(), "alice", aggregates.NewGraph())
	assert.True(t, pkgerrors.IsSaveConflict(err))
}
