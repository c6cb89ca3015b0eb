package memory

import (
	"context"
	"testing"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewSnapshotRepository(clock)
	ctx := context.Background()

	_, found, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)

	saved, err := repo.Save(ctx, "alice", aggregates.StarterGraph())
	require.NoError(t, err)
	assert.Equal(t, clock.now, saved)

	snap, found, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, clock.now, snap.LastUpdated)
	assert.Equal(t, 3, snap.Graph.NodeCount())
	assert.Equal(t, 2, snap.Graph.EdgeCount())
	node, ok := snap.Graph.Node(valueobjects.NodeID("2"))
	require.True(t, ok)
	assert.Equal(t, "中间节点", node.Content())

	assert.Equal(t, []string{"alice"}, repo.Users())
}

func TestOperationStore_Lifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := NewOperationStore(time.Hour, 0, clock)
	defer s.Stop()
	ctx := context.Background()

	op := &ports.OperationResult{
		OperationID: "op-1",
		Status:      ports.OperationStatusPending,
		StartedAt:   clock.now,
		Metadata:    map[string]interface{}{"source_id": "3"},
	}
	require.NoError(t, s.Store(ctx, op))
	op.Metadata["source_id"] = "mutated"

	got, err := s.Get(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, "3", got.Metadata["source_id"], "store keeps its own copy")

	done := *got
	done.Status = ports.OperationStatusCompleted
	require.NoError(t, s.Update(ctx, "op-1", &done))
	got, err = s.Get(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, ports.OperationStatusCompleted, got.Status)

	err = s.Update(ctx, "missing", &done)
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, "op-1"))
	_, err = s.Get(ctx, "op-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestOperationStore_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := NewOperationStore(time.Minute, 0, clock)
	defer s.Stop()
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, &ports.OperationResult{OperationID: "old", StartedAt: clock.now}))
	clock.now = clock.now.Add(2 * time.Minute)
	require.NoError(t, s.Store(ctx, &ports.OperationResult{OperationID: "new", StartedAt: clock.now}))

	_, err := s.Get(ctx, "old")
	assert.True(t, pkgerrors.IsNotFound(err), "expired records are hidden")

	require.NoError(t, s.CleanupExpired(ctx, time.Minute))
	assert.Equal(t, 1, s.Len())

	assert.Error(t, s.Store(ctx, &ports.OperationResult{}))
}
