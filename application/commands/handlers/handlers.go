package handlers

import (
	"context"
	"sync"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/application/enrichment"
	"cognitivediary/application/interaction"
	"cognitivediary/application/persistence"
	"cognitivediary/application/ports"
	"cognitivediary/application/store"
	"cognitivediary/domain/config"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/events"
	"cognitivediary/domain/services"

	"go.uber.org/zap"
)

// Enricher starts and cancels LLM enrichments
type Enricher interface {
	AskLLM(ctx context.Context, sourceID valueobjects.NodeID) (enrichment.Ticket, error)
	ChainedQuery(ctx context.Context, sourceID valueobjects.NodeID) (enrichment.Ticket, error)
	Cancel(operationID string) error
}

// Persister saves snapshots on behalf of the session
type Persister interface {
	Save(ctx context.Context, g *aggregates.Graph, opts persistence.SaveOptions) error
	Schedule(g *aggregates.Graph)
}

// Dependencies groups the collaborators shared by every handler
type Dependencies struct {
	Username  string
	Store     *store.GraphStore
	Allocator *services.IDAllocator
	Enricher  Enricher
	Persister Persister
	Machine   *interaction.Machine
	Publisher ports.EventPublisher
	Metrics   ports.Metrics
	Config    func() *config.DomainConfig
}

// Handlers executes editing commands against one session
type Handlers struct {
	deps   Dependencies
	logger *zap.Logger

	// pointerMu serializes access to the interaction machine
	pointerMu sync.Mutex
}

// New creates the handler set for a session
func New(deps Dependencies, logger *zap.Logger) *Handlers {
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	if deps.Config == nil {
		deps.Config = config.DefaultDomainConfig
	}
	if deps.Machine == nil {
		deps.Machine = interaction.NewMachine()
	}
	return &Handlers{
		deps:   deps,
		logger: logger.With(zap.String("username", deps.Username)),
	}
}

// Register binds every command type to its handler on b
func (h *Handlers) Register(b *bus.CommandBus) error {
	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateNode{}, h.handleCreateNode},
		{commands.EditNode{}, h.handleEditNode},
		{commands.ToggleCollapse{}, h.handleToggleCollapse},
		{commands.DeleteNodes{}, h.handleDeleteNodes},
		{commands.DeleteEdges{}, h.handleDeleteEdges},
		{commands.DeleteSelection{}, h.handleDeleteSelection},
		{commands.ConnectNodes{}, h.handleConnectNodes},
		{commands.AskLLM{}, h.handleAskLLM},
		{commands.ChainedQuery{}, h.handleChainedQuery},
		{commands.CancelEnrichment{}, h.handleCancelEnrichment},
		{commands.ClearHighlight{}, h.handleClearHighlight},
		{commands.SaveNow{}, h.handleSaveNow},
		{commands.Pointer{}, h.handlePointer},
	}
	for _, r := range routes {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// mutate applies fn through the store and schedules a save when the graph
// actually changed.
func (h *Handlers) mutate(fn func(g *aggregates.Graph) (*aggregates.Graph, error)) (*aggregates.Graph, error) {
	changed := false
	next, err := h.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		out, err := fn(g)
		if err != nil {
			return nil, err
		}
		changed = out != nil && out != g
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	if changed && h.deps.Persister != nil {
		h.deps.Persister.Schedule(next)
	}
	return next, nil
}

func (h *Handlers) publish(ctx context.Context, evt events.DomainEvent) {
	if h.deps.Publisher == nil {
		return
	}
	if err := h.deps.Publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("Failed to publish event",
			zap.String("event_type", evt.EventType()),
			zap.Error(err))
	}
}

func nodeIDs(raw []string) []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, len(raw))
	for i, r := range raw {
		ids[i] = valueobjects.NodeID(r)
	}
	return ids
}

func edgeIDs(raw []string) []valueobjects.EdgeID {
	ids := make([]valueobjects.EdgeID, len(raw))
	for i, r := range raw {
		ids[i] = valueobjects.EdgeID(r)
	}
	return ids
}

func idStrings(ids []valueobjects.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// removedEdges lists the edges of before that are gone in after
func removedEdges(before, after *aggregates.Graph) []valueobjects.EdgeID {
	var gone []valueobjects.EdgeID
	for _, id := range before.EdgeIDs() {
		if _, ok := after.Edge(id); !ok {
			gone = append(gone, id)
		}
	}
	return gone
}
