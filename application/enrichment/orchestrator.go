package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cognitivediary/application/persistence"
	"cognitivediary/application/ports"
	"cognitivediary/application/store"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/events"
	"cognitivediary/domain/services"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Saver persists a committed snapshot
type Saver interface {
	Save(ctx context.Context, g *aggregates.Graph, opts persistence.SaveOptions) error
}

// Dependencies groups the collaborators of an Orchestrator
type Dependencies struct {
	Store      *store.GraphStore
	Allocator  *services.IDAllocator
	LLM        ports.LLMClient
	Saver      Saver
	Notifier   ports.Notifier
	Publisher  ports.EventPublisher
	Operations ports.OperationStore
	Metrics    ports.Metrics
	Settings   func() Settings
	// OnTransition, when set, observes every state change.
	OnTransition func(operationID string, s State)
}

// Orchestrator runs LLM enrichments against one editing session. Nodes
// involved in a request are locked before the call starts and unlocked in
// the same store update that applies the answer or undoes the request.
type Orchestrator struct {
	username string
	deps     Dependencies
	logger   *zap.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	inflight map[string]*operation
	wg       sync.WaitGroup
}

// NewOrchestrator creates an orchestrator for username's session
func NewOrchestrator(username string, deps Dependencies, logger *zap.Logger) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	if deps.Settings == nil {
		deps.Settings = DefaultSettings
	}
	return &Orchestrator{
		username: username,
		deps:     deps,
		logger:   logger.With(zap.String("username", username)),
		tracer:   otel.Tracer("cognitivediary/enrichment"),
		inflight: make(map[string]*operation),
	}
}

// AskLLM asks the model about a single node. The source is locked and a
// pending answer node is added before this returns; the answer arrives
// asynchronously.
func (o *Orchestrator) AskLLM(ctx context.Context, sourceID valueobjects.NodeID) (Ticket, error) {
	settings := o.deps.Settings()
	op := o.newOperation(KindSingle, sourceID)
	o.transition(op, StateLocking)

	var req ports.ChatRequest
	_, err := o.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		source, err := enrichableSource(g, sourceID)
		if err != nil {
			return nil, err
		}
		req = ports.ChatRequest{
			Message:     source.Content(),
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}
		return o.lockAndPlace(g, op, source, []valueobjects.NodeID{sourceID}, settings.ThinkingLabel, entities.EdgeKindEnrichment, settings)
	})
	if err != nil {
		o.rejected(op, err)
		return Ticket{}, err
	}

	op.call = func(ctx context.Context) (string, error) {
		return o.deps.LLM.Chat(ctx, req)
	}
	o.launch(ctx, op, settings)
	return op.Ticket, nil
}

// ChainedQuery asks the model about a node together with every node that
// leads to it. The previous highlight is replaced by the new chain, and the
// whole chain is locked until the answer arrives. A node with nothing
// leading into it fails with an EmptyChain error and changes nothing.
func (o *Orchestrator) ChainedQuery(ctx context.Context, sourceID valueobjects.NodeID) (Ticket, error) {
	settings := o.deps.Settings()
	op := o.newOperation(KindChain, sourceID)

	var (
		req   ports.ChainChatRequest
		chain services.Chain
	)
	_, err := o.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		source, err := enrichableSource(g, sourceID)
		if err != nil {
			return nil, err
		}

		o.transition(op, StateClearingPriorHighlight)
		g = services.ClearHighlight(g)

		o.transition(op, StateTracing)
		chain = services.TraceChain(g, sourceID)
		if !chain.HasAncestors() {
			return nil, pkgerrors.NewEmptyChain(sourceID.String())
		}

		o.transition(op, StateHighlighting)
		g = services.ApplyHighlight(g, chain)

		req = ports.ChainChatRequest{
			ChainNodes:        chainContext(chain),
			TargetNodeContent: source.Content(),
			Temperature:       settings.Temperature,
		}

		o.transition(op, StateLocking)
		return o.lockAndPlace(g, op, source, chain.NodeIDs(), settings.ChainThinkingLabel, entities.EdgeKindChainEnrichment, settings)
	})
	if err != nil {
		o.rejected(op, err)
		return Ticket{}, err
	}

	o.publish(ctx, events.NewHighlightApplied(o.username, idStrings(chain.NodeIDs())))
	op.call = func(ctx context.Context) (string, error) {
		return o.deps.LLM.ChainChat(ctx, req)
	}
	o.launch(ctx, op, settings)
	return op.Ticket, nil
}

// Cancel aborts an in-flight operation. The operation rolls back as if the
// request had failed.
func (o *Orchestrator) Cancel(operationID string) error {
	o.mu.Lock()
	op, ok := o.inflight[operationID]
	o.mu.Unlock()
	if !ok {
		return pkgerrors.NewNotFound("no running operation " + operationID)
	}
	o.logger.Info("Cancelling enrichment", zap.String("operation_id", operationID))
	op.cancel()
	return nil
}

// InFlight returns the number of running operations
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Wait blocks until every running operation has committed or rolled back
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels every running operation and waits for the rollbacks
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, op := range o.inflight {
		op.cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) newOperation(kind Kind, sourceID valueobjects.NodeID) *operation {
	return &operation{
		Ticket: Ticket{
			OperationID: uuid.New().String(),
			Kind:        kind,
			SourceID:    sourceID,
		},
		username:  o.username,
		startedAt: time.Now(),
	}
}

// enrichableSource returns the node an enrichment may be asked about
func enrichableSource(g *aggregates.Graph, id valueobjects.NodeID) (entities.Node, error) {
	source, ok := g.Node(id)
	if !ok {
		return entities.Node{}, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
	}
	switch source.Kind() {
	case entities.NodeKindAnnotation:
		return entities.Node{}, pkgerrors.NewValidation("annotations cannot be sent to the model")
	case entities.NodeKindTransient:
		return entities.Node{}, pkgerrors.NewValidation("node is still waiting for an answer")
	}
	return source, nil
}

// lockAndPlace locks the given nodes and adds the pending answer node with
// its edge, all in the snapshot being built by the caller's update.
func (o *Orchestrator) lockAndPlace(g *aggregates.Graph, op *operation, source entities.Node, lock []valueobjects.NodeID, label string, edgeKind entities.EdgeKind, s Settings) (*aggregates.Graph, error) {
	g, err := services.LockNodes(g, lock)
	if err != nil {
		return nil, err
	}

	transientID := o.deps.Allocator.Next(g)
	pos := services.TransientPosition(source, s.DefaultNodeWidth, s.TransientGap)
	pending, err := entities.NewNode(transientID, pos, entities.NodeKindTransient, label)
	if err != nil {
		return nil, err
	}
	if g, err = g.AddNode(pending.WithLocked(true)); err != nil {
		return nil, err
	}

	edge, err := entities.NewEdge("", source.ID(), transientID, edgeKind, valueobjects.EdgeStyle{})
	if err != nil {
		return nil, err
	}
	if g, _, err = g.AddEdge(edge); err != nil {
		return nil, err
	}

	op.TransientID = transientID
	op.LockedIDs = append([]valueobjects.NodeID(nil), lock...)
	op.edgeID = edge.ID()
	return g, nil
}

func (o *Orchestrator) rejected(op *operation, err error) {
	if pkgerrors.IsLockedEntity(err) {
		o.deps.Metrics.RecordLockRejection(string(op.Kind))
	}
	o.logger.Info("Enrichment rejected",
		zap.String("kind", string(op.Kind)),
		zap.String("source_id", op.SourceID.String()),
		zap.Error(err))
}

func (o *Orchestrator) launch(ctx context.Context, op *operation, s Settings) {
	// The answer outlives the request that asked for it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	op.cancel = cancel

	o.mu.Lock()
	o.inflight[op.OperationID] = op
	o.mu.Unlock()

	o.recordStart(ctx, op)
	o.transition(op, StateAwaitingResponse)

	o.wg.Add(1)
	go o.await(runCtx, op, s)
}

func (o *Orchestrator) await(ctx context.Context, op *operation, s Settings) {
	defer o.wg.Done()
	defer func() {
		op.cancel()
		o.mu.Lock()
		delete(o.inflight, op.OperationID)
		o.mu.Unlock()
	}()

	ctx, span := o.tracer.Start(ctx, "enrichment."+string(op.Kind),
		trace.WithAttributes(
			attribute.String("operation.id", op.OperationID),
			attribute.String("node.source", op.SourceID.String()),
			attribute.Int("nodes.locked", len(op.LockedIDs)),
		))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	answer, err := op.call(callCtx)
	err = classify(callCtx, err)
	cancel()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.rollback(ctx, op, err)
		return
	}
	o.commit(ctx, op, answer)
}

// classify maps context expiry onto the error kinds users see
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return pkgerrors.NewTimeout("model did not answer in time", err)
	case errors.Is(ctx.Err(), context.Canceled):
		return pkgerrors.NewCancelled("request cancelled")
	case pkgerrors.TypeOf(err) != "":
		return err
	default:
		return pkgerrors.NewNetworkFailure("model request failed", err)
	}
}

func (o *Orchestrator) commit(ctx context.Context, op *operation, answer string) {
	o.transition(op, StateCommitting)

	committed, err := o.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		g = services.UnlockNodes(g, op.involved())
		if g.HasNode(op.TransientID) {
			normal := entities.NodeKindNormal
			var err error
			g, err = g.UpdateNode(op.TransientID, aggregates.NodePatch{Content: &answer, Kind: &normal})
			if err != nil {
				return nil, err
			}
		}
		if op.Kind == KindChain {
			g = services.ClearHighlight(g)
		}
		return g, nil
	})
	if err != nil {
		o.logger.Error("Failed to apply answer", zap.String("operation_id", op.OperationID), zap.Error(err))
		o.rollback(ctx, op, pkgerrors.NewInternal("failed to apply answer", err))
		return
	}

	if op.Kind == KindChain {
		o.publish(ctx, events.NewHighlightCleared(o.username))
	}
	if err := o.deps.Saver.Save(ctx, committed, persistence.SaveOptions{}); err != nil && !pkgerrors.IsSaveConflict(err) {
		o.logger.Warn("Answer applied but not saved",
			zap.String("operation_id", op.OperationID),
			zap.Error(err))
	}

	o.transition(op, StateCompleted)
	d := time.Since(op.startedAt)
	o.deps.Metrics.RecordEnrichment(string(op.Kind), "completed", d)
	o.logger.Info("Enrichment completed",
		zap.String("operation_id", op.OperationID),
		zap.String("kind", string(op.Kind)),
		zap.String("node_id", op.TransientID.String()),
		zap.Duration("duration", d))
	o.finishOperation(ctx, op, ports.OperationStatusCompleted, answer, nil)
	o.publish(ctx, events.NewEnrichmentCompleted(o.username, op.OperationID, string(op.Kind), op.TransientID.String(), d))
}

// rollback removes the pending answer and releases every lock in one
// update. A chain highlight is left in place so the user can see what was
// asked about.
func (o *Orchestrator) rollback(ctx context.Context, op *operation, cause error) {
	o.transition(op, StateRollingBack)

	_, err := o.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		g = services.UnlockNodes(g, op.involved())
		return g.RemoveNodes([]valueobjects.NodeID{op.TransientID})
	})
	if err != nil {
		// Every involved node was unlocked above, so removal cannot be refused.
		o.logger.Error("Rollback failed", zap.String("operation_id", op.OperationID), zap.Error(err))
	}

	o.transition(op, StateRolledBack)
	d := time.Since(op.startedAt)
	status := ports.OperationStatusFailed
	outcome := "failed"
	if pkgerrors.IsCancelled(cause) {
		status = ports.OperationStatusCancelled
		outcome = "cancelled"
	}
	o.deps.Metrics.RecordEnrichment(string(op.Kind), outcome, d)
	o.logger.Warn("Enrichment rolled back",
		zap.String("operation_id", op.OperationID),
		zap.String("kind", string(op.Kind)),
		zap.String("source_id", op.SourceID.String()),
		zap.Duration("duration", d),
		zap.Error(cause))

	if o.deps.Notifier != nil {
		o.deps.Notifier.Notify(ctx, o.username, ports.Notification{
			Level:   ports.NotificationError,
			Kind:    pkgerrors.TypeOf(cause),
			Message: "Model request failed: " + cause.Error(),
		})
	}
	o.finishOperation(ctx, op, status, nil, cause)
	o.publish(ctx, events.NewEnrichmentFailed(o.username, op.OperationID, string(op.Kind), op.SourceID.String(), d, cause))
}

func (o *Orchestrator) transition(op *operation, s State) {
	op.state = s
	o.logger.Debug("Enrichment state",
		zap.String("operation_id", op.OperationID),
		zap.String("state", string(s)))
	if o.deps.OnTransition != nil {
		o.deps.OnTransition(op.OperationID, s)
	}
}

func (o *Orchestrator) recordStart(ctx context.Context, op *operation) {
	if o.deps.Operations != nil {
		err := o.deps.Operations.Store(ctx, &ports.OperationResult{
			OperationID: op.OperationID,
			Username:    o.username,
			Kind:        string(op.Kind),
			Status:      ports.OperationStatusPending,
			StartedAt:   op.startedAt,
			Metadata: map[string]interface{}{
				"source_id":    op.SourceID.String(),
				"transient_id": op.TransientID.String(),
				"locked_ids":   idStrings(op.LockedIDs),
			},
		})
		if err != nil {
			o.logger.Warn("Failed to record operation", zap.String("operation_id", op.OperationID), zap.Error(err))
		}
	}
	o.publish(ctx, events.NewEnrichmentStarted(o.username, op.OperationID, string(op.Kind),
		op.SourceID.String(), op.TransientID.String(), idStrings(op.LockedIDs)))
}

func (o *Orchestrator) finishOperation(ctx context.Context, op *operation, status ports.OperationStatus, result interface{}, cause error) {
	if o.deps.Operations == nil {
		return
	}
	now := time.Now()
	res := &ports.OperationResult{
		OperationID: op.OperationID,
		Username:    o.username,
		Kind:        string(op.Kind),
		Status:      status,
		StartedAt:   op.startedAt,
		CompletedAt: &now,
		Result:      result,
		Metadata: map[string]interface{}{
			"source_id":    op.SourceID.String(),
			"transient_id": op.TransientID.String(),
		},
	}
	if cause != nil {
		res.Error = cause.Error()
	}
	if err := o.deps.Operations.Update(ctx, op.OperationID, res); err != nil {
		o.logger.Warn("Failed to update operation", zap.String("operation_id", op.OperationID), zap.Error(err))
	}
}

func (o *Orchestrator) publish(ctx context.Context, evt events.DomainEvent) {
	if o.deps.Publisher == nil {
		return
	}
	if err := o.deps.Publisher.Publish(ctx, evt); err != nil {
		o.logger.Warn("Failed to publish event", zap.String("event_type", evt.EventType()), zap.Error(err))
	}
}

func chainContext(chain services.Chain) []ports.ChainNode {
	ordered := chain.RootFirst()
	out := make([]ports.ChainNode, len(ordered))
	for i, n := range ordered {
		out[i] = ports.ChainNode{ID: n.ID().String(), Label: n.Content()}
	}
	return out
}

func idStrings(ids []valueobjects.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
