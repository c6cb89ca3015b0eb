package handlers

import (
	"context"
	"fmt"

	"cognitivediary/application/commands"
	"cognitivediary/application/commands/bus"
	"cognitivediary/application/interaction"
	"cognitivediary/application/persistence"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
)

// PointerResult is the interaction state after a pointer event
type PointerResult struct {
	State         interaction.State     `json:"state"`
	SelectedNodes []valueobjects.NodeID `json:"selectedNodes"`
	SelectedEdges []valueobjects.EdgeID `json:"selectedEdges"`
}

// SaveResult reports the outcome of a manual save
type SaveResult struct {
	// Status is "saved", or "skipped" when another save was in flight
	// or the minimum interval had not passed.
	Status string `json:"status"`
}

func (h *Handlers) handleSaveNow(ctx context.Context, c bus.Command) (interface{}, error) {
	if _, ok := c.(commands.SaveNow); !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	if h.deps.Persister == nil {
		return nil, fmt.Errorf("session has no persister")
	}
	err := h.deps.Persister.Save(ctx, h.deps.Store.Snapshot(), persistence.SaveOptions{Announce: true})
	switch {
	case pkgerrors.IsSaveConflict(err):
		// Dropped saves are not failures; the dirty state is written later.
		h.logger.Info("Manual save skipped", zap.Error(err))
		return SaveResult{Status: "skipped"}, nil
	case err != nil:
		return nil, err
	}
	return SaveResult{Status: "saved"}, nil
}

func (h *Handlers) handleDeleteSelection(ctx context.Context, c bus.Command) (interface{}, error) {
	if _, ok := c.(commands.DeleteSelection); !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}
	h.pointerMu.Lock()
	nodes := h.deps.Machine.SelectedNodes()
	edges := h.deps.Machine.SelectedEdges()
	h.pointerMu.Unlock()

	switch {
	case len(nodes) > 0:
		return h.deleteNodes(ctx, nodes)
	case len(edges) > 0:
		return h.deleteEdges(edges)
	}
	return DeleteResult{}, nil
}

// handlePointer runs a gesture through the interaction machine and applies
// its effects. Drag frames move nodes without saving; the machine asks for
// a save once the gesture is over.
func (h *Handlers) handlePointer(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.Pointer)
	if !ok {
		return nil, fmt.Errorf("invalid command type %T", c)
	}

	h.pointerMu.Lock()
	defer h.pointerMu.Unlock()

	event := cmd.Event
	if release, ok := event.(interaction.DragRectangleRelease); ok {
		event = interaction.DragRectangleRelease{NodeIDs: h.existing(release.NodeIDs)}
	}

	for _, effect := range h.deps.Machine.Handle(event) {
		switch e := effect.(type) {
		case interaction.Translate:
			_, err := h.deps.Store.Update(func(g *aggregates.Graph) (*aggregates.Graph, error) {
				return g.TranslateNodes(h.existingIn(g, e.NodeIDs), e.DX, e.DY)
			})
			if err != nil {
				h.logger.Warn("Failed to move nodes", zap.Error(err))
			}
		case interaction.Persist:
			if h.deps.Persister != nil {
				h.deps.Persister.Schedule(h.deps.Store.Snapshot())
			}
		}
	}

	return PointerResult{
		State:         h.deps.Machine.State(),
		SelectedNodes: h.deps.Machine.SelectedNodes(),
		SelectedEdges: h.deps.Machine.SelectedEdges(),
	}, nil
}

func (h *Handlers) existing(ids []valueobjects.NodeID) []valueobjects.NodeID {
	return h.existingIn(h.deps.Store.Snapshot(), ids)
}

func (h *Handlers) existingIn(g *aggregates.Graph, ids []valueobjects.NodeID) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(ids))
	for _, id := range ids {
		if g.HasNode(id) {
			out = append(out, id)
		}
	}
	return out
}
