package services

import (
	"fmt"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"
)

// LockNodes locks every listed node, or none of them. It fails when a node
// is missing or already held by another operation.
func LockNodes(g *aggregates.Graph, ids []valueobjects.NodeID) (*aggregates.Graph, error) {
	set := make(map[valueobjects.NodeID]bool, len(ids))
	var held []string
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
		}
		if n.IsLocked() {
			held = append(held, id.String())
		}
		set[id] = true
	}
	if len(held) > 0 {
		return nil, pkgerrors.NewLockedEntity("nodes are busy with another request", held...)
	}
	return setLocked(g, set, true), nil
}

// UnlockNodes releases the listed nodes. Missing nodes are skipped, so a
// rollback never fails because the user deleted something meanwhile.
func UnlockNodes(g *aggregates.Graph, ids []valueobjects.NodeID) *aggregates.Graph {
	set := make(map[valueobjects.NodeID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return setLocked(g, set, false)
}

func setLocked(g *aggregates.Graph, set map[valueobjects.NodeID]bool, locked bool) *aggregates.Graph {
	return g.MapNodes(func(n entities.Node) entities.Node {
		if set[n.ID()] {
			return n.WithLocked(locked)
		}
		return n
	})
}

// TransientPosition places a pending answer node to the right of its
// source, leaving gap between them.
func TransientPosition(source entities.Node, defaultWidth, gap float64) valueobjects.Position {
	width := source.Width()
	if width <= 0 {
		width = defaultWidth
	}
	p, err := source.Position().Translate(width+gap, 0)
	if err != nil {
		return source.Position()
	}
	return p
}
