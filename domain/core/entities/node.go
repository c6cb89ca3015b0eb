package entities

import (
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"
)

// NodeKind distinguishes thought nodes from free-text annotations and
// placeholders for pending enrichments.
type NodeKind string

const (
	NodeKindNormal     NodeKind = "normal"
	NodeKindAnnotation NodeKind = "annotation"
	NodeKindTransient  NodeKind = "transient"
)

// IsValid checks if the node kind is valid
func (k NodeKind) IsValid() bool {
	switch k {
	case NodeKindNormal, NodeKindAnnotation, NodeKindTransient:
		return true
	default:
		return false
	}
}

// String returns the string representation of the node kind
func (k NodeKind) String() string {
	return string(k)
}

// Node is a single thought on the canvas. Nodes are values: every change
// returns a modified copy, leaving the receiver untouched so that graph
// snapshots holding it stay immutable.
type Node struct {
	id          valueobjects.NodeID
	position    valueobjects.Position
	kind        NodeKind
	content     string
	locked      bool
	highlighted bool
	collapsed   bool
	width       float64
}

// NewNode creates a node with validation
func NewNode(id valueobjects.NodeID, position valueobjects.Position, kind NodeKind, content string) (Node, error) {
	if id == "" {
		return Node{}, pkgerrors.NewValidation("node id cannot be empty")
	}
	if !kind.IsValid() {
		return Node{}, pkgerrors.NewValidation("invalid node kind: " + string(kind))
	}
	return Node{id: id, position: position, kind: kind, content: content}, nil
}

// NodeState carries every persisted node attribute, used to rebuild nodes
// from storage or the wire.
type NodeState struct {
	ID          valueobjects.NodeID
	Position    valueobjects.Position
	Kind        NodeKind
	Content     string
	Locked      bool
	Highlighted bool
	Collapsed   bool
	Width       float64
}

// ReconstructNode rebuilds a node from stored state
func ReconstructNode(s NodeState) (Node, error) {
	n, err := NewNode(s.ID, s.Position, s.Kind, s.Content)
	if err != nil {
		return Node{}, err
	}
	n.locked = s.Locked
	n.highlighted = s.Highlighted
	n.collapsed = s.Collapsed
	n.width = s.Width
	return n, nil
}

// State returns every attribute of the node
func (n Node) State() NodeState {
	return NodeState{
		ID:          n.id,
		Position:    n.position,
		Kind:        n.kind,
		Content:     n.content,
		Locked:      n.locked,
		Highlighted: n.highlighted,
		Collapsed:   n.collapsed,
		Width:       n.width,
	}
}

// ID returns the node's unique identifier
func (n Node) ID() valueobjects.NodeID { return n.id }

// Position returns the node's position
func (n Node) Position() valueobjects.Position { return n.position }

// Kind returns the node kind
func (n Node) Kind() NodeKind { return n.kind }

// Content returns the node's text
func (n Node) Content() string { return n.content }

// IsLocked reports whether an enrichment currently holds this node
func (n Node) IsLocked() bool { return n.locked }

// IsHighlighted reports whether the node is part of the displayed chain
func (n Node) IsHighlighted() bool { return n.highlighted }

// IsCollapsed reports whether the node body is folded
func (n Node) IsCollapsed() bool { return n.collapsed }

// Width returns the measured render width, 0 when unknown
func (n Node) Width() float64 { return n.width }

// IsConnectable reports whether the node may be an edge endpoint.
// Annotations are free text and never take part in the thought graph.
func (n Node) IsConnectable() bool {
	return n.kind != NodeKindAnnotation
}

// WithContent returns a copy with new content
func (n Node) WithContent(content string) Node {
	n.content = content
	return n
}

// WithPosition returns a copy at a new position
func (n Node) WithPosition(p valueobjects.Position) Node {
	n.position = p
	return n
}

// WithKind returns a copy of a different kind
func (n Node) WithKind(k NodeKind) Node {
	n.kind = k
	return n
}

// WithLocked returns a copy with the lock flag set
func (n Node) WithLocked(locked bool) Node {
	n.locked = locked
	return n
}

// WithHighlighted returns a copy with the highlight flag set
func (n Node) WithHighlighted(highlighted bool) Node {
	n.highlighted = highlighted
	return n
}

// WithCollapsed returns a copy with the collapse flag set
func (n Node) WithCollapsed(collapsed bool) Node {
	n.collapsed = collapsed
	return n
}

// WithWidth returns a copy with a measured width
func (n Node) WithWidth(width float64) Node {
	n.width = width
	return n
}
