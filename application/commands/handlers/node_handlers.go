package handlers

import (
	"context"
	"fmt"
	"strings"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/application/enrichment"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/events"
	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
)

// CreateNodeResult reports the new node and, for a thinking-mode note, the
// enrichment that was started for it.
type CreateNodeResult struct {
	NodeID valueobjects.NodeID `json:"nodeId"`
	Ticket *enrichment.Ticket  `json:"ticket,omitempty"`
}

// DeleteResult lists what a delete removed
type DeleteResult struct {
	NodeIDs []valueobjects.NodeID `json:"nodeIds"`
	EdgeIDs []valueobjects.EdgeID `json:"edgeIds"`
}

func (h *Handlers) handleCreateNode(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.CreateNode)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	cfg := h.deps.Config()
	content := strings.TrimSpace(cmd.Content)
	if len(content) > cfg.MaxContentLength {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("content exceeds %d characters", cfg.MaxContentLength))
	}
	pos, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	kind := entities.NodeKindNormal
	if cmd.Annotation {
		kind = entities.NodeKindAnnotation
	}

	var id valueobjects.NodeID
	_, err = h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		if g.NodeCount() >= cfg.MaxNodesPerGraph {
			return nil, pkgerrors.NewValidation(fmt.Sprintf("graph is limited to %d nodes", cfg.MaxNodesPerGraph))
		}
		id = h.deps.Allocator.Next(g)
		node, err := entities.NewNode(id, pos, kind, content)
		if err != nil {
			return nil, err
		}
		return g.AddNode(node)
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("Node created", zap.String("node_id", id.String()), zap.String("kind", kind.String()))

	result := CreateNodeResult{NodeID: id}
	if cmd.Think {
		ticket, err := h.deps.Enricher.AskLLM(ctx, id)
		if err != nil {
			return result, fmt.Errorf("node %s created but ask failed: %w", id, err)
		}
		result.Ticket = &ticket
	}
	return result, nil
}

func (h *Handlers) handleEditNode(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.EditNode)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	cfg := h.deps.Config()
	if cmd.Content != nil && len(*cmd.Content) > cfg.MaxContentLength {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("content exceeds %d characters", cfg.MaxContentLength))
	}
	id := valueobjects.NodeID(cmd.NodeID)

	_, err := h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		n, ok := g.Node(id)
		if !ok {
			return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
		}
		if n.IsLocked() {
			h.deps.Metrics.RecordLockRejection("edit")
			return nil, pkgerrors.NewLockedEntity("node is waiting for an answer", id.String())
		}
		return g.UpdateNode(id, aggregates.NodePatch{Content: cmd.Content, Width: cmd.Width})
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Handlers) handleToggleCollapse(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.ToggleCollapse)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	id := valueobjects.NodeID(cmd.NodeID)

	var collapsed bool
	_, err := h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		n, ok := g.Node(id)
		if !ok {
			return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
		}
		collapsed = !n.IsCollapsed()
		return g.UpdateNode(id, aggregates.NodePatch{Collapsed: &collapsed})
	})
	if err != nil {
		return nil, err
	}
	return collapsed, nil
}

func (h *Handlers) handleDeleteNodes(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.DeleteNodes)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	return h.deleteNodes(ctx, nodeIDs(cmd.NodeIDs))
}

// deleteNodes removes ids as one batch. A locked node anywhere in the batch
// leaves the graph untouched.
func (h *Handlers) deleteNodes(ctx context.Context, ids []valueobjects.NodeID) (DeleteResult, error) {
	var result DeleteResult
	_, err := h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		next, err := g.RemoveNodes(ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if g.HasNode(id) {
				result.NodeIDs = append(result.NodeIDs, id)
			}
		}
		result.EdgeIDs = removedEdges(g, next)
		return next, nil
	})
	if err != nil {
		if pkgerrors.IsLockedEntity(err) {
			h.deps.Metrics.RecordLockRejection("delete")
			h.logger.Info("Delete refused for locked nodes", zap.Error(err))
		}
		return DeleteResult{}, err
	}
	if len(result.NodeIDs) == 0 {
		return result, nil
	}

	h.pointerMu.Lock()
	h.deps.Machine.Forget(result.NodeIDs, result.EdgeIDs)
	h.pointerMu.Unlock()

	h.logger.Info("Nodes deleted",
		zap.Int("nodes", len(result.NodeIDs)),
		zap.Int("edges", len(result.EdgeIDs)))
	h.publish(ctx, events.NewNodesDeleted(h.deps.Username, idStrings(result.NodeIDs)))
	return result, nil
}
