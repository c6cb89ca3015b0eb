package services

import (
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
)

// ApplyHighlight marks exactly the chain's nodes as highlighted and gives
// exactly the chain's edges the highlight style. Any earlier highlight is
// replaced.
func ApplyHighlight(g *aggregates.Graph, chain Chain) *aggregates.Graph {
	nodeSet := make(map[valueobjects.NodeID]bool, len(chain.Nodes))
	for _, n := range chain.Nodes {
		nodeSet[n.ID()] = true
	}
	edgeSet := make(map[valueobjects.EdgeID]bool, len(chain.Edges))
	for _, e := range chain.Edges {
		edgeSet[e.ID()] = true
	}

	next := g.MapNodes(func(n entities.Node) entities.Node {
		return n.WithHighlighted(nodeSet[n.ID()])
	})
	return next.MapEdges(func(e entities.Edge) entities.Edge {
		if edgeSet[e.ID()] {
			return e.WithStyle(valueobjects.ChainHighlightStyle())
		}
		return resetHighlightedEdge(e)
	})
}

// ClearHighlight removes every highlight. Edges are found by their style
// origin rather than by tracing again, so edges added or removed since the
// highlight was applied are handled. Returns g itself when nothing is
// highlighted.
func ClearHighlight(g *aggregates.Graph) *aggregates.Graph {
	if !HasHighlight(g) {
		return g
	}
	next := g.MapNodes(func(n entities.Node) entities.Node {
		return n.WithHighlighted(false)
	})
	return next.MapEdges(resetHighlightedEdge)
}

// HasHighlight reports whether any node or edge carries a chain highlight
func HasHighlight(g *aggregates.Graph) bool {
	for _, n := range g.Nodes() {
		if n.IsHighlighted() {
			return true
		}
	}
	for _, e := range g.Edges() {
		if e.Style().Origin == valueobjects.StyleOriginChainHighlight {
			return true
		}
	}
	return false
}

func resetHighlightedEdge(e entities.Edge) entities.Edge {
	if e.Style().Origin != valueobjects.StyleOriginChainHighlight {
		return e
	}
	return e.WithStyle(valueobjects.DefaultEdgeStyle())
}
