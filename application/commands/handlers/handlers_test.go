package handlers

import (
	"context"
	"sync"
	"testing"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/application/enrichment"
	"cognitivediary/application/interaction"
	"cognitivediary/application/persistence"
	"cognitivediary/application/store"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/services"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) AskLLM(ctx context.Context, id valueobjects.NodeID) (enrichment.Ticket, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(enrichment.Ticket), args.Error(1)
}

func (m *mockEnricher) ChainedQuery(ctx context.Context, id valueobjects.NodeID) (enrichment.Ticket, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(enrichment.Ticket), args.Error(1)
}

func (m *mockEnricher) Cancel(operationID string) error {
	return m.Called(operationID).Error(0)
}

type recordingPersister struct {
	mu        sync.Mutex
	scheduled []*aggregates.Graph
	saved     []persistence.SaveOptions
	saveErr   error
}

func (p *recordingPersister) Save(ctx context.Context, g *aggregates.Graph, opts persistence.SaveOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, opts)
	return p.saveErr
}

func (p *recordingPersister) Schedule(g *aggregates.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = append(p.scheduled, g)
}

func (p *recordingPersister) scheduledCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scheduled)
}

type fixture struct {
	bus       *bus.CommandBus
	store     *store.GraphStore
	persister *recordingPersister
	enricher  *mockEnricher
	machine   *interaction.Machine
}

func newFixture(t *testing.T, g *aggregates.Graph) *fixture {
	t.Helper()
	f := &fixture{
		bus:       bus.NewCommandBus(),
		store:     store.NewGraphStore(g),
		persister: &recordingPersister{},
		enricher:  &mockEnricher{},
		machine:   interaction.NewMachine(),
	}
	alloc := services.NewIDAllocator()
	alloc.Observe(g)
	h := New(Dependencies{
		Username:  "alice",
		Store:     f.store,
		Allocator: alloc,
		Enricher:  f.enricher,
		Persister: f.persister,
		Machine:   f.machine,
	}, zap.NewNop())
	require.NoError(t, h.Register(f.bus))
	return f
}

func (f *fixture) send(t *testing.T, cmd bus.Command) (interface{}, error) {
	t.Helper()
	return f.bus.Send(context.Background(), cmd)
}

func lockedStarter(t *testing.T, ids ...valueobjects.NodeID) *aggregates.Graph {
	t.Helper()
	g, err := services.LockNodes(aggregates.StarterGraph(), ids)
	require.NoError(t, err)
	return g
}

func TestCreateNode(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())

	res, err := f.send(t, commands.CreateNode{X: 10, Y: 20, Content: "  idea  "})

	require.NoError(t, err)
	created := res.(CreateNodeResult)
	assert.Equal(t, valueobjects.NodeID("4"), created.NodeID)
	assert.Nil(t, created.Ticket)
	n, ok := f.store.Snapshot().Node("4")
	require.True(t, ok)
	assert.Equal(t, "idea", n.Content())
	assert.Equal(t, 1, f.persister.scheduledCount())
}

func TestCreateNode_Rejections(t *testing.T) {
	tests := []struct {
		name string
		cmd  commands.CreateNode
	}{
		{name: "blank content", cmd: commands.CreateNode{Content: "   "}},
		{name: "missing content", cmd: commands.CreateNode{}},
		{name: "thinking annotation", cmd: commands.CreateNode{Content: "x", Annotation: true, Think: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, aggregates.StarterGraph())
			_, err := f.send(t, tt.cmd)
			assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
			assert.Equal(t, 3, f.store.Snapshot().NodeCount())
			assert.Zero(t, f.persister.scheduledCount())
		})
	}
}

func TestCreateNode_ThinkingModeAsksAboutNewNode(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())
	ticket := enrichment.Ticket{OperationID: "op-1", SourceID: "4", TransientID: "5"}
	f.enricher.On("AskLLM", mock.Anything, valueobjects.NodeID("4")).Return(ticket, nil).Once()

	res, err := f.send(t, commands.CreateNode{X: 1, Y: 1, Content: "why?", Think: true})

	require.NoError(t, err)
	created := res.(CreateNodeResult)
	require.NotNil(t, created.Ticket)
	assert.Equal(t, "op-1", created.Ticket.OperationID)
	f.enricher.AssertExpectations(t)
}

func TestCreateNode_AnnotationCannotBeConnected(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())
	_, err := f.send(t, commands.CreateNode{Content: "note", Annotation: true})
	require.NoError(t, err)

	_, err = f.send(t, commands.ConnectNodes{Source: "1", Target: "4"})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 2, f.store.Snapshot().EdgeCount())
}

func TestEditNode(t *testing.T) {
	content := "rewritten"

	t.Run("updates content", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.EditNode{NodeID: "2", Content: &content})
		require.NoError(t, err)
		n, _ := f.store.Snapshot().Node("2")
		assert.Equal(t, content, n.Content())
		assert.Equal(t, 1, f.persister.scheduledCount())
	})

	t.Run("refuses locked node", func(t *testing.T) {
		f := newFixture(t, lockedStarter(t, "2"))
		_, err := f.send(t, commands.EditNode{NodeID: "2", Content: &content})
		assert.True(t, pkgerrors.IsLockedEntity(err))
		n, _ := f.store.Snapshot().Node("2")
		assert.Equal(t, "中间节点", n.Content())
	})

	t.Run("missing node", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.EditNode{NodeID: "42", Content: &content})
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("nothing to edit", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.EditNode{NodeID: "2"})
		assert.Error(t, err)
	})
}

func TestToggleCollapse(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())

	res, err := f.send(t, commands.ToggleCollapse{NodeID: "1"})
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = f.send(t, commands.ToggleCollapse{NodeID: "1"})
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestDeleteNodes(t *testing.T) {
	t.Run("removes nodes and touching edges", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())

		res, err := f.send(t, commands.DeleteNodes{NodeIDs: []string{"2"}})

		require.NoError(t, err)
		deleted := res.(DeleteResult)
		assert.Equal(t, []valueobjects.NodeID{"2"}, deleted.NodeIDs)
		assert.ElementsMatch(t, []valueobjects.EdgeID{"e1-2", "e2-3"}, deleted.EdgeIDs)
		assert.Zero(t, f.store.Snapshot().EdgeCount())
		assert.Equal(t, 1, f.persister.scheduledCount())
	})

	t.Run("locked node refuses whole batch", func(t *testing.T) {
		f := newFixture(t, lockedStarter(t, "3"))
		before := f.store.Snapshot()

		_, err := f.send(t, commands.DeleteNodes{NodeIDs: []string{"1", "3"}})

		assert.True(t, pkgerrors.IsLockedEntity(err))
		assert.Same(t, before, f.store.Snapshot())
		assert.Zero(t, f.persister.scheduledCount())
	})

	t.Run("empty batch is invalid", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.DeleteNodes{})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown ids change nothing", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.DeleteNodes{NodeIDs: []string{"99"}})
		require.NoError(t, err)
		assert.Zero(t, f.persister.scheduledCount())
	})
}

func TestDeleteNodes_NewIDsAreNotReused(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())
	_, err := f.send(t, commands.DeleteNodes{NodeIDs: []string{"3"}})
	require.NoError(t, err)

	res, err := f.send(t, commands.CreateNode{Content: "after delete"})

	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeID("4"), res.(CreateNodeResult).NodeID)
}

func TestConnectNodes(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())

	res, err := f.send(t, commands.ConnectNodes{Source: "1", Target: "3"})
	require.NoError(t, err)
	assert.Equal(t, ConnectResult{EdgeID: "e1-3", Added: true}, res)

	res, err = f.send(t, commands.ConnectNodes{Source: "1", Target: "3"})
	require.NoError(t, err)
	assert.False(t, res.(ConnectResult).Added)
	assert.Equal(t, 1, f.persister.scheduledCount(), "duplicate edge schedules nothing")

	_, err = f.send(t, commands.ConnectNodes{Source: "1", Target: "1"})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = f.send(t, commands.ConnectNodes{Source: "1", Target: "77"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteEdges(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())

	res, err := f.send(t, commands.DeleteEdges{EdgeIDs: []string{"e1-2", "missing"}})

	require.NoError(t, err)
	assert.Equal(t, []valueobjects.EdgeID{"e1-2"}, res.(DeleteResult).EdgeIDs)
	assert.Equal(t, 3, f.store.Snapshot().NodeCount())
}

func TestDeleteSelection(t *testing.T) {
	t.Run("deletes selected nodes", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.Pointer{Event: interaction.PointerDownOnNode{NodeID: "1"}})
		require.NoError(t, err)

		_, err = f.send(t, commands.DeleteSelection{})

		require.NoError(t, err)
		assert.False(t, f.store.Snapshot().HasNode("1"))
		assert.Equal(t, interaction.StateNormal, f.machine.State())
	})

	t.Run("falls back to selected edges", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		_, err := f.send(t, commands.Pointer{Event: interaction.PointerDownOnEdge{EdgeID: "e2-3"}})
		require.NoError(t, err)

		_, err = f.send(t, commands.DeleteSelection{})

		require.NoError(t, err)
		assert.Equal(t, []valueobjects.EdgeID{"e1-2"}, f.store.Snapshot().EdgeIDs())
	})

	t.Run("nothing selected", func(t *testing.T) {
		f := newFixture(t, aggregates.StarterGraph())
		res, err := f.send(t, commands.DeleteSelection{})
		require.NoError(t, err)
		assert.Equal(t, DeleteResult{}, res)
	})
}

func TestPointer_GroupDragMovesMembersAndSavesOnRelease(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())
	send := func(e interaction.Event) {
		_, err := f.send(t, commands.Pointer{Event: e})
		require.NoError(t, err)
	}

	send(interaction.DragRectangleRelease{NodeIDs: []valueobjects.NodeID{"1", "2", "ghost"}})
	require.Equal(t, 1, f.persister.scheduledCount())
	assert.Equal(t, []valueobjects.NodeID{"1", "2"}, f.machine.Group())

	send(interaction.PointerDownOnNode{NodeID: "1", At: valueobjects.MustPosition(100, 100)})
	send(interaction.DragMove{NodeID: "1", At: valueobjects.MustPosition(120, 90)})
	send(interaction.DragMove{NodeID: "1", At: valueobjects.MustPosition(130, 90)})
	assert.Equal(t, 1, f.persister.scheduledCount(), "drag frames are not saved")

	send(interaction.DragEnd{NodeID: "1", At: valueobjects.MustPosition(130, 90)})
	assert.Equal(t, 2, f.persister.scheduledCount())

	g := f.store.Snapshot()
	n1, _ := g.Node("1")
	n2, _ := g.Node("2")
	n3, _ := g.Node("3")
	assert.Equal(t, valueobjects.MustPosition(130, 90), n1.Position())
	assert.Equal(t, valueobjects.MustPosition(380, 90), n2.Position())
	assert.Equal(t, valueobjects.MustPosition(600, 100), n3.Position())
	assert.Equal(t, interaction.StateBoxSelecting, f.machine.State())
}

func TestEnrichmentCommandsDelegate(t *testing.T) {
	f := newFixture(t, aggregates.StarterGraph())
	f.enricher.On("AskLLM", mock.Anything, valueobjects.NodeID("1")).Return(enrichment.Ticket{OperationID: "a"}, nil)
	f.enricher.On("ChainedQuery", mock.Anything, valueobjects.NodeID("1")).Return(enrichment.Ticket{}, pkgerrors.NewEmptyChain("1"))
	f.enricher.On("Cancel", "6f1c2d1e-5a4b-4c3d-9e8f-7a6b5c4d3e2f").Return(nil)

	res, err := f.send(t, commands.AskLLM{NodeID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.(enrichment.Ticket).OperationID)

	_, err = f.send(t, commands.ChainedQuery{NodeID: "1"})
	assert.True(t, pkgerrors.IsEmptyChain(err))

	_, err = f.send(t, commands.CancelEnrichment{OperationID: "6f1c2d1e-5a4b-4c3d-9e8f-7a6b5c4d3e2f"})
	require.NoError(t, err)

	_, err = f.send(t, commands.CancelEnrichment{OperationID: "not-a-uuid"})
	assert.True(t, pkgerrors.IsValidation(err))

	f.enricher.AssertExpectations(t)
}

func TestClearHighlight(t *testing.T) {
	g := aggregates.StarterGraph()
	highlighted := services.ApplyHighlight(g, services.TraceChain(g, "3"))
	f := newFixture(t, highlighted)

	res, err := f.send(t, commands.ClearHighlight{})
	require.NoError(t, err)
	assert.Equal(t, true, res)
	assert.False(t, services.HasHighlight(f.store.Snapshot()))
	assert.Zero(t, f.persister.scheduledCount())

	res, err = f.send(t, commands.ClearHighlight{})
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestSaveNow(t *testing.T) {
	tests := []struct {
		name       string
		saveErr    error
		wantStatus string
		wantErr    pkgerrors.ErrorType
	}{
		{name: "saved", wantStatus: "saved"},
		{name: "dropped save is skipped", saveErr: pkgerrors.NewSaveConflict("save already in flight"), wantStatus: "skipped"},
		{name: "failed save is surfaced", saveErr: pkgerrors.NewNetworkFailure("backend unreachable", nil), wantErr: pkgerrors.ErrorTypeNetworkFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, aggregates.StarterGraph())
			f.persister.saveErr = tt.saveErr

			res, err := f.send(t, commands.SaveNow{})

			require.Len(t, f.persister.saved, 1)
			assert.True(t, f.persister.saved[0].Announce)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, pkgerrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SaveResult{Status: tt.wantStatus}, res)
		})
	}
}
