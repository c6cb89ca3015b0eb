package aggregates

import (
	"fmt"
	"sort"

	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
	pkgerrors "cognitivediary/pkg/errors"
)

// Graph is an immutable snapshot of the thought graph. Every mutation
// returns a new Graph and leaves the receiver untouched, so a snapshot can
// be handed to an async operation or a save without copying.
type Graph struct {
	nodes     map[valueobjects.NodeID]entities.Node
	nodeOrder []valueobjects.NodeID
	edges     map[valueobjects.EdgeID]entities.Edge
	edgeOrder []valueobjects.EdgeID
	version   int
}

// NodePatch lists node fields to change. Nil fields are left as they are.
type NodePatch struct {
	Content     *string
	Position    *valueobjects.Position
	Kind        *entities.NodeKind
	Locked      *bool
	Highlighted *bool
	Collapsed   *bool
	Width       *float64
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[valueobjects.NodeID]entities.Node),
		edges: make(map[valueobjects.EdgeID]entities.Edge),
	}
}

// FromParts builds a graph from loaded nodes and edges. Duplicate node ids
// are rejected. Edges with a missing endpoint are skipped and reported,
// later duplicates of an edge id are ignored.
func FromParts(nodes []entities.Node, edges []entities.Edge) (*Graph, []valueobjects.EdgeID, error) {
	g := NewGraph()
	for _, n := range nodes {
		if _, exists := g.nodes[n.ID()]; exists {
			return nil, nil, pkgerrors.NewConflict(fmt.Sprintf("duplicate node id %s", n.ID()))
		}
		g.nodes[n.ID()] = n
		g.nodeOrder = append(g.nodeOrder, n.ID())
	}

	var skipped []valueobjects.EdgeID
	for _, e := range edges {
		if !g.HasNode(e.Source()) || !g.HasNode(e.Target()) {
			skipped = append(skipped, e.ID())
			continue
		}
		if _, exists := g.edges[e.ID()]; exists {
			continue
		}
		g.edges[e.ID()] = e
		g.edgeOrder = append(g.edgeOrder, e.ID())
	}
	return g, skipped, nil
}

// Version counts the mutations that produced this snapshot
func (g *Graph) Version() int { return g.version }

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasNode reports whether the node exists
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node looks up a node
func (g *Graph) Node(id valueobjects.NodeID) (entities.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge looks up an edge
func (g *Graph) Edge(id valueobjects.EdgeID) (entities.Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns the nodes in insertion order
func (g *Graph) Nodes() []entities.Node {
	out := make([]entities.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns the edges in insertion order
func (g *Graph) Edges() []entities.Edge {
	out := make([]entities.Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// NodeIDs returns the node ids in insertion order
func (g *Graph) NodeIDs() []valueobjects.NodeID {
	return append([]valueobjects.NodeID(nil), g.nodeOrder...)
}

// EdgeIDs returns the edge ids in insertion order
func (g *Graph) EdgeIDs() []valueobjects.EdgeID {
	return append([]valueobjects.EdgeID(nil), g.edgeOrder...)
}

// LockedNodeIDs returns the ids of locked nodes, sorted
func (g *Graph) LockedNodeIDs() []valueobjects.NodeID {
	var ids []valueobjects.NodeID
	for id, n := range g.nodes {
		if n.IsLocked() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddNode returns a graph with n added. A node id already present is a conflict.
func (g *Graph) AddNode(n entities.Node) (*Graph, error) {
	if _, exists := g.nodes[n.ID()]; exists {
		return nil, pkgerrors.NewConflict(fmt.Sprintf("node %s already exists", n.ID()))
	}
	next := g.clone()
	next.nodes[n.ID()] = n
	next.nodeOrder = append(next.nodeOrder, n.ID())
	return next, nil
}

// AddEdge returns a graph with e added. Both endpoints must exist and be
// connectable. Adding an edge whose id is already present is a no-op and
// reports added=false.
func (g *Graph) AddEdge(e entities.Edge) (*Graph, bool, error) {
	if _, exists := g.edges[e.ID()]; exists {
		return g, false, nil
	}
	for _, id := range []valueobjects.NodeID{e.Source(), e.Target()} {
		n, ok := g.nodes[id]
		if !ok {
			return nil, false, pkgerrors.NewNotFound(fmt.Sprintf("edge endpoint %s not found", id))
		}
		if !n.IsConnectable() {
			return nil, false, pkgerrors.NewValidation(fmt.Sprintf("node %s is an annotation and cannot be connected", id))
		}
	}
	next := g.clone()
	next.edges[e.ID()] = e
	next.edgeOrder = append(next.edgeOrder, e.ID())
	return next, true, nil
}

// UpdateNode merges patch into the node with the given id
func (g *Graph) UpdateNode(id valueobjects.NodeID, patch NodePatch) (*Graph, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
	}
	if patch.Kind != nil && !patch.Kind.IsValid() {
		return nil, pkgerrors.NewValidation("invalid node kind: " + patch.Kind.String())
	}
	n = applyPatch(n, patch)
	next := g.clone()
	next.nodes[id] = n
	return next, nil
}

func applyPatch(n entities.Node, p NodePatch) entities.Node {
	if p.Content != nil {
		n = n.WithContent(*p.Content)
	}
	if p.Position != nil {
		n = n.WithPosition(*p.Position)
	}
	if p.Kind != nil {
		n = n.WithKind(*p.Kind)
	}
	if p.Locked != nil {
		n = n.WithLocked(*p.Locked)
	}
	if p.Highlighted != nil {
		n = n.WithHighlighted(*p.Highlighted)
	}
	if p.Collapsed != nil {
		n = n.WithCollapsed(*p.Collapsed)
	}
	if p.Width != nil {
		n = n.WithWidth(*p.Width)
	}
	return n
}

// RemoveNodes removes the given nodes and every edge touching them. If any
// of the nodes is locked nothing is removed. Unknown ids are ignored.
func (g *Graph) RemoveNodes(ids []valueobjects.NodeID) (*Graph, error) {
	var locked []string
	doomed := make(map[valueobjects.NodeID]bool, len(ids))
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		if n.IsLocked() {
			locked = append(locked, id.String())
		}
		doomed[id] = true
	}
	if len(locked) > 0 {
		return nil, pkgerrors.NewLockedEntity("cannot delete locked nodes", locked...)
	}
	if len(doomed) == 0 {
		return g, nil
	}

	next := g.clone()
	for id := range doomed {
		delete(next.nodes, id)
	}
	next.nodeOrder = filterNodeIDs(next.nodeOrder, func(id valueobjects.NodeID) bool { return !doomed[id] })
	next.edgeOrder = filterEdgeIDs(next.edgeOrder, func(id valueobjects.EdgeID) bool {
		e := next.edges[id]
		if doomed[e.Source()] || doomed[e.Target()] {
			delete(next.edges, id)
			return false
		}
		return true
	})
	return next, nil
}

// RemoveEdges removes the given edges. Unknown ids are ignored.
func (g *Graph) RemoveEdges(ids []valueobjects.EdgeID) *Graph {
	doomed := make(map[valueobjects.EdgeID]bool, len(ids))
	for _, id := range ids {
		if _, ok := g.edges[id]; ok {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return g
	}
	next := g.clone()
	for id := range doomed {
		delete(next.edges, id)
	}
	next.edgeOrder = filterEdgeIDs(next.edgeOrder, func(id valueobjects.EdgeID) bool { return !doomed[id] })
	return next
}

// TranslateNodes moves every listed node by (dx, dy)
func (g *Graph) TranslateNodes(ids []valueobjects.NodeID, dx, dy float64) (*Graph, error) {
	next := g.clone()
	for _, id := range ids {
		n, ok := next.nodes[id]
		if !ok {
			return nil, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", id))
		}
		p, err := n.Position().Translate(dx, dy)
		if err != nil {
			return nil, err
		}
		next.nodes[id] = n.WithPosition(p)
	}
	return next, nil
}

// MapNodes returns a graph with fn applied to every node. Node ids cannot
// change through fn.
func (g *Graph) MapNodes(fn func(entities.Node) entities.Node) *Graph {
	next := g.clone()
	for id, n := range next.nodes {
		next.nodes[id] = fn(n)
	}
	return next
}

// MapEdges returns a graph with fn applied to every edge.
func (g *Graph) MapEdges(fn func(entities.Edge) entities.Edge) *Graph {
	next := g.clone()
	for id, e := range next.edges {
		next.edges[id] = fn(e)
	}
	return next
}

// Validate checks the structural invariants of the snapshot
func (g *Graph) Validate() error {
	if len(g.nodes) != len(g.nodeOrder) || len(g.edges) != len(g.edgeOrder) {
		return pkgerrors.NewInternal("graph index out of sync", nil)
	}
	for _, e := range g.edges {
		src, okSrc := g.nodes[e.Source()]
		tgt, okTgt := g.nodes[e.Target()]
		if !okSrc || !okTgt {
			return pkgerrors.NewValidation(fmt.Sprintf("edge %s has a missing endpoint", e.ID()))
		}
		if !src.IsConnectable() || !tgt.IsConnectable() {
			return pkgerrors.NewValidation(fmt.Sprintf("edge %s touches an annotation", e.ID()))
		}
	}
	return nil
}

func (g *Graph) clone() *Graph {
	next := &Graph{
		nodes:     make(map[valueobjects.NodeID]entities.Node, len(g.nodes)),
		nodeOrder: append([]valueobjects.NodeID(nil), g.nodeOrder...),
		edges:     make(map[valueobjects.EdgeID]entities.Edge, len(g.edges)),
		edgeOrder: append([]valueobjects.EdgeID(nil), g.edgeOrder...),
		version:   g.version + 1,
	}
	for id, n := range g.nodes {
		next.nodes[id] = n
	}
	for id, e := range g.edges {
		next.edges[id] = e
	}
	return next
}

func filterNodeIDs(ids []valueobjects.NodeID, keep func(valueobjects.NodeID) bool) []valueobjects.NodeID {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

func filterEdgeIDs(ids []valueobjects.EdgeID, keep func(valueobjects.EdgeID) bool) []valueobjects.EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
