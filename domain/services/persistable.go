package services

import (
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
)

// Persistable returns the part of g that may be written to storage:
// pending answer nodes and their edges are left out and no node is locked.
// Saves triggered while an enrichment is outstanding therefore never store
// its intermediate state.
func Persistable(g *aggregates.Graph) *aggregates.Graph {
	var transient []valueobjects.NodeID
	for _, n := range g.Nodes() {
		if n.Kind() == entities.NodeKindTransient {
			transient = append(transient, n.ID())
		}
	}
	locked := g.LockedNodeIDs()
	if len(transient) == 0 && len(locked) == 0 {
		return g
	}

	clean := UnlockNodes(g, locked)
	clean, err := clean.RemoveNodes(transient)
	if err != nil {
		// Unreachable: every node was unlocked above.
		return g
	}
	return clean
}
