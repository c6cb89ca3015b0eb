package handlers

import (
	"context"
	"fmt"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"

	"go.uber.org/zap"
)

// ConnectResult reports the edge id and whether it was new
type ConnectResult struct {
	EdgeID valueobjects.EdgeID `json:"edgeId"`
	Added  bool                `json:"added"`
}

func (h *Handlers) handleConnectNodes(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.ConnectNodes)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	edge, err := entities.NewEdge("", valueobjects.NodeID(cmd.Source), valueobjects.NodeID(cmd.Target), entities.EdgeKindUserDrawn, valueobjects.EdgeStyle{})
	if err != nil {
		return nil, err
	}

	var added bool
	_, err = h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		next, ok, err := g.AddEdge(edge)
		added = ok
		return next, err
	})
	if err != nil {
		return nil, err
	}
	if added {
		h.logger.Info("Nodes connected",
			zap.String("edge_id", edge.ID().String()),
			zap.String("source", cmd.Source),
			zap.String("target", cmd.Target))
	}
	return ConnectResult{EdgeID: edge.ID(), Added: added}, nil
}

func (h *Handlers) handleDeleteEdges(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.DeleteEdges)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	return h.deleteEdges(edgeIDs(cmd.EdgeIDs))
}

func (h *Handlers) deleteEdges(ids []valueobjects.EdgeID) (DeleteResult, error) {
	var result DeleteResult
	_, err := h.mutate(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		next := g.RemoveEdges(ids)
		result.EdgeIDs = removedEdges(g, next)
		return next, nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	if len(result.EdgeIDs) > 0 {
		h.pointerMu.Lock()
		h.deps.Machine.Forget(nil, result.EdgeIDs)
		h.pointerMu.Unlock()
	}
	return result, nil
}
