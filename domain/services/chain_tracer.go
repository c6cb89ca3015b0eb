package services

import (
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
)

// Chain is the set of nodes and edges from which a target node can be
// reached. Nodes are in discovery order, starting with the target.
type Chain struct {
	Nodes []entities.Node
	Edges []entities.Edge
}

// IsEmpty reports whether the target was not found
func (c Chain) IsEmpty() bool {
	return len(c.Nodes) == 0
}

// HasAncestors reports whether anything leads into the target
func (c Chain) HasAncestors() bool {
	return len(c.Nodes) > 1
}

// RootFirst returns the chain nodes ordered from the furthest ancestor to
// the target, the order in which the chain is read as context.
func (c Chain) RootFirst() []entities.Node {
	out := make([]entities.Node, len(c.Nodes))
	for i, n := range c.Nodes {
		out[len(c.Nodes)-1-i] = n
	}
	return out
}

// NodeIDs returns the ids of the chain nodes
func (c Chain) NodeIDs() []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.ID()
	}
	return ids
}

// EdgeIDs returns the ids of the chain edges
func (c Chain) EdgeIDs() []valueobjects.EdgeID {
	ids := make([]valueobjects.EdgeID, len(c.Edges))
	for i, e := range c.Edges {
		ids[i] = e.ID()
	}
	return ids
}

// TraceChain walks edges backwards from target and collects every node and
// edge on a path into it. Each node is expanded once, so cycles terminate.
// Runs in O(V+E). A missing target yields an empty chain.
func TraceChain(g *aggregates.Graph, target valueobjects.NodeID) Chain {
	if !g.HasNode(target) {
		return Chain{}
	}

	incoming := make(map[valueobjects.NodeID][]entities.Edge)
	for _, e := range g.Edges() {
		incoming[e.Target()] = append(incoming[e.Target()], e)
	}

	var chain Chain
	visited := make(map[valueobjects.NodeID]bool)
	seenEdges := make(map[valueobjects.EdgeID]bool)

	var walk func(id valueobjects.NodeID)
	walk = func(id valueobjects.NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		if n, ok := g.Node(id); ok {
			chain.Nodes = append(chain.Nodes, n)
		}
		for _, e := range incoming[id] {
			if !seenEdges[e.ID()] {
				seenEdges[e.ID()] = true
				chain.Edges = append(chain.Edges, e)
			}
			walk(e.Source())
		}
	}
	walk(target)

	return chain
}
