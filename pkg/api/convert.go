package api

import (
	"fmt"
	"strings"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
)

// FromGraph renders g in canvas format
func FromGraph(g *aggregates.Graph) ([]Node, []Edge) {
	nodes := make([]Node, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, FromNode(n))
	}
	edges := make([]Edge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		edges = append(edges, FromEdge(e))
	}
	return nodes, edges
}

// FromNode renders one node
func FromNode(n entities.Node) Node {
	nodeType := NodeTypeThought
	if n.Kind() == entities.NodeKindAnnotation {
		nodeType = NodeTypeAnnotation
	}
	return Node{
		ID:       n.ID().String(),
		Type:     nodeType,
		Position: XY{X: n.Position().X(), Y: n.Position().Y()},
		Data: NodeData{
			Label:         n.Content(),
			IsLocked:      n.IsLocked(),
			IsHighlighted: n.IsHighlighted(),
			IsCollapsed:   n.IsCollapsed(),
		},
		Width: n.Width(),
	}
}

// FromEdge renders one edge
func FromEdge(e entities.Edge) Edge {
	s := e.Style()
	out := Edge{
		ID:       e.ID().String(),
		Source:   e.Source().String(),
		Target:   e.Target().String(),
		Type:     EdgeTypeSmoothStep,
		Animated: s.Animated,
		Style: &EdgeStyle{
			Stroke:          s.Stroke,
			StrokeWidth:     s.StrokeWidth,
			StrokeDasharray: s.StrokeDasharray,
		},
		MarkerEnd: &Marker{Type: MarkerArrowClosed, Color: s.Stroke},
		Data:      &EdgeData{Kind: e.Kind().String()},
	}
	if s.Origin == valueobjects.StyleOriginChainHighlight {
		out.ClassName = ChainEdgeClassName
	}
	return out
}

// ToGraph rebuilds a graph from canvas data. Edges pointing at missing
// nodes are dropped and their ids returned; edges without a style get the
// default one.
func ToGraph(nodes []Node, edges []Edge) (*aggregates.Graph, []valueobjects.EdgeID, error) {
	domainNodes := make([]entities.Node, 0, len(nodes))
	for _, n := range nodes {
		dn, err := ToNode(n)
		if err != nil {
			return nil, nil, err
		}
		domainNodes = append(domainNodes, dn)
	}
	domainEdges := make([]entities.Edge, 0, len(edges))
	for _, e := range edges {
		de, err := ToEdge(e)
		if err != nil {
			return nil, nil, err
		}
		domainEdges = append(domainEdges, de)
	}
	return aggregates.FromParts(domainNodes, domainEdges)
}

// ToNode rebuilds one node
func ToNode(n Node) (entities.Node, error) {
	id, err := valueobjects.NewNodeID(n.ID)
	if err != nil {
		return entities.Node{}, err
	}
	pos, err := valueobjects.NewPosition(n.Position.X, n.Position.Y)
	if err != nil {
		return entities.Node{}, fmt.Errorf("node %s: %w", n.ID, err)
	}
	kind := entities.NodeKindNormal
	if n.Type == NodeTypeAnnotation {
		kind = entities.NodeKindAnnotation
	}
	return entities.ReconstructNode(entities.NodeState{
		ID:          id,
		Position:    pos,
		Kind:        kind,
		Content:     n.Data.Label,
		Locked:      n.Data.IsLocked,
		Highlighted: n.Data.IsHighlighted,
		Collapsed:   n.Data.IsCollapsed,
		Width:       n.Width,
	})
}

// ToEdge rebuilds one edge
func ToEdge(e Edge) (entities.Edge, error) {
	id, err := valueobjects.NewEdgeID(e.ID)
	if err != nil {
		return entities.Edge{}, err
	}
	var style valueobjects.EdgeStyle
	if e.Style != nil && (e.Style.Stroke != "" || e.Style.StrokeWidth > 0) {
		style = valueobjects.EdgeStyle{
			Stroke:          e.Style.Stroke,
			StrokeWidth:     e.Style.StrokeWidth,
			StrokeDasharray: e.Style.StrokeDasharray,
			Animated:        e.Animated,
		}
		if e.ClassName == ChainEdgeClassName {
			style.Origin = valueobjects.StyleOriginChainHighlight
		}
	}
	edge, err := entities.NewEdge(id, valueobjects.NodeID(e.Source), valueobjects.NodeID(e.Target), edgeKind(e), style)
	if err != nil {
		return entities.Edge{}, fmt.Errorf("edge %s: %w", e.ID, err)
	}
	return edge, nil
}

// edgeKind reads the stored kind, falling back to the id prefix for data
// saved before kinds were recorded.
func edgeKind(e Edge) entities.EdgeKind {
	if e.Data != nil {
		if k := entities.EdgeKind(e.Data.Kind); k.IsValid() {
			return k
		}
	}
	switch {
	case strings.HasPrefix(e.ID, "llm-"):
		return entities.EdgeKindEnrichment
	case strings.HasPrefix(e.ID, "chain-"):
		return entities.EdgeKindChainEnrichment
	default:
		return entities.EdgeKindUserDrawn
	}
}
