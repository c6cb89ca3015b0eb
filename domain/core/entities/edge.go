package entities

import (
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"
)

// Edge is a directed connection between two nodes
type Edge struct {
	id     valueobjects.EdgeID
	source valueobjects.NodeID
	target valueobjects.NodeID
	kind   EdgeKind
	style  valueobjects.EdgeStyle
}

// NewEdge creates an edge. An empty id is derived from kind and endpoints;
// a zero style becomes the default style.
func NewEdge(id valueobjects.EdgeID, source, target valueobjects.NodeID, kind EdgeKind, style valueobjects.EdgeStyle) (Edge, error) {
	if source == "" || target == "" {
		return Edge{}, pkgerrors.NewValidation("edge endpoints cannot be empty")
	}
	if source == target {
		return Edge{}, pkgerrors.NewValidation("cannot connect node to itself")
	}
	if !kind.IsValid() {
		return Edge{}, pkgerrors.NewValidation("invalid edge kind: " + string(kind))
	}
	if id == "" {
		id = valueobjects.DeriveEdgeID(kind.IDPrefix(), source, target)
	}
	if style.IsZero() {
		style = valueobjects.DefaultEdgeStyle()
	}
	return Edge{id: id, source: source, target: target, kind: kind, style: style}, nil
}

// ID returns the edge id
func (e Edge) ID() valueobjects.EdgeID { return e.id }

// Source returns the origin node
func (e Edge) Source() valueobjects.NodeID { return e.source }

// Target returns the destination node
func (e Edge) Target() valueobjects.NodeID { return e.target }

// Kind returns the edge kind
func (e Edge) Kind() EdgeKind { return e.kind }

// Style returns the visual style
func (e Edge) Style() valueobjects.EdgeStyle { return e.style }

// Touches reports whether the edge has id as either endpoint
func (e Edge) Touches(id valueobjects.NodeID) bool {
	return e.source == id || e.target == id
}

// WithStyle returns a copy with a new style
func (e Edge) WithStyle(style valueobjects.EdgeStyle) Edge {
	e.style = style
	return e
}
