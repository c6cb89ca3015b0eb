package eventbridge

import (
	"context"
	"encoding/json"
	"testing"

	"cognitivediary/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAPI struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
}

func (r *recordingAPI) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	r.calls = append(r.calls, in)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: r.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{}
		if r.failed > 0 {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func TestPublisher_Batches(t *testing.T) {
	api := &recordingAPI{}
	p := NewPublisher(api, "diary-bus", zap.NewNop())

	evts := make([]events.DomainEvent, 23)
	for i := range evts {
		evts[i] = events.NewGraphLoaded("alice", i, 0, false)
	}
	require.NoError(t, p.Publish(context.Background(), evts...))

	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].Entries, 10)
	assert.Len(t, api.calls[2].Entries, 3)

	entry := api.calls[0].Entries[0]
	assert.Equal(t, "diary-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceEditor, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeGraphLoaded, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "alice", detail["username"])
}

func TestPublisher_FailedEntries(t *testing.T) {
	p := NewPublisher(&recordingAPI{failed: 1}, "diary-bus", zap.NewNop())
	err := p.Publish(context.Background(), events.NewGraphLoaded("alice", 1, 0, false))
	assert.Error(t, err)
}

func TestPublisher_Nothing(t *testing.T) {
	api := &recordingAPI{}
	require.NoError(t, NewPublisher(api, "bus", zap.NewNop()).Publish(context.Background()))
	assert.Empty(t, api.calls)
}
