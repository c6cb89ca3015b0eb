package handlers

import (
	"context"
	"fmt"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/events"
	"cognitivediary/domain/services"
)

func (h *Handlers) handleAskLLM(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.AskLLM)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	return h.deps.Enricher.AskLLM(ctx, valueobjects.NodeID(cmd.NodeID))
}

func (h *Handlers) handleChainedQuery(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.ChainedQuery)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	return h.deps.Enricher.ChainedQuery(ctx, valueobjects.NodeID(cmd.NodeID))
}

func (h *Handlers) handleCancelEnrichment(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.CancelEnrichment)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	return nil, h.deps.Enricher.Cancel(cmd.OperationID)
}

// handleClearHighlight drops the chain highlight. It is not a structural
// edit and schedules no save.
func (h *Handlers) handleClearHighlight(ctx context.Context, c bus.Command) (interface{}, error) {
	if _, ok := c.(commands.ClearHighlight); !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	cleared := false
	_, err := h.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		next := services.ClearHighlight(g)
		cleared = next != g
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	if cleared {
		h.publish(ctx, events.NewHighlightCleared(h.deps.Username))
	}
	return cleared, nil
}
