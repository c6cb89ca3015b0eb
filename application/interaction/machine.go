package interaction

import (
	"cognitivediary/domain/core/valueobjects"
)

// State is the pointer-interaction mode of an editing session
type State string

const (
	StateNormal       State = "normal"
	StateSelecting    State = "selecting"
	StateBoxSelecting State = "box_selecting"
	StateDragging     State = "dragging"
)

// Event is a pointer gesture reported by the editor
type Event interface {
	eventName() string
}

// PointerDownOnNode is a press on a node. At is the node's position at the
// time of the press.
type PointerDownOnNode struct {
	NodeID   valueobjects.NodeID
	At       valueobjects.Position
	Additive bool
}

// PointerDownOnEdge is a press on an edge
type PointerDownOnEdge struct {
	EdgeID   valueobjects.EdgeID
	Additive bool
}

// PointerDownOnBlank is a press on empty canvas
type PointerDownOnBlank struct{}

// DragRectangleRelease ends a rubber-band selection over the given nodes
type DragRectangleRelease struct {
	NodeIDs []valueobjects.NodeID
}

// DragStart begins moving a node
type DragStart struct {
	NodeID valueobjects.NodeID
	At     valueobjects.Position
}

// DragMove reports the dragged node's current position
type DragMove struct {
	NodeID valueobjects.NodeID
	At     valueobjects.Position
}

// DragEnd releases the dragged node
type DragEnd struct {
	NodeID valueobjects.NodeID
	At     valueobjects.Position
}

func (PointerDownOnNode) eventName() string    { return "pointer_down_node" }
func (PointerDownOnEdge) eventName() string    { return "pointer_down_edge" }
func (PointerDownOnBlank) eventName() string   { return "pointer_down_blank" }
func (DragRectangleRelease) eventName() string { return "drag_rectangle_release" }
func (DragStart) eventName() string            { return "drag_start" }
func (DragMove) eventName() string             { return "drag_move" }
func (DragEnd) eventName() string              { return "drag_end" }

// Effect is work the session must carry out after a transition
type Effect interface {
	effectName() string
}

// Translate moves nodes by a delta
type Translate struct {
	NodeIDs []valueobjects.NodeID
	DX, DY  float64
}

// Persist asks for the current layout to be saved
type Persist struct{}

func (Translate) effectName() string { return "translate" }
func (Persist) effectName() string   { return "persist" }

// Machine tracks selection, box selection and dragging. Handle is the only
// way its state changes; it never touches the graph itself but returns the
// effects to apply.
type Machine struct {
	state State

	selectedNodes []valueobjects.NodeID
	selectedEdges []valueobjects.EdgeID
	group         []valueobjects.NodeID

	dragOrigin State
	dragNode   valueobjects.NodeID
	lastPos    valueobjects.Position
	moved      bool
}

// NewMachine starts in Normal with nothing selected
func NewMachine() *Machine {
	return &Machine{state: StateNormal}
}

// State returns the current mode
func (m *Machine) State() State { return m.state }

// SelectedNodes returns the deliberately selected nodes, or the box group
func (m *Machine) SelectedNodes() []valueobjects.NodeID {
	if m.state == StateBoxSelecting || m.dragOrigin == StateBoxSelecting && m.state == StateDragging {
		return append([]valueobjects.NodeID(nil), m.group...)
	}
	return append([]valueobjects.NodeID(nil), m.selectedNodes...)
}

// SelectedEdges returns the selected edges
func (m *Machine) SelectedEdges() []valueobjects.EdgeID {
	return append([]valueobjects.EdgeID(nil), m.selectedEdges...)
}

// Group returns the members of the committed box selection
func (m *Machine) Group() []valueobjects.NodeID {
	return append([]valueobjects.NodeID(nil), m.group...)
}

// Handle applies e and returns the resulting effects. Events that mean
// nothing in the current state are ignored.
func (m *Machine) Handle(e Event) []Effect {
	switch m.state {
	case StateNormal:
		return m.handleNormal(e)
	case StateSelecting:
		return m.handleSelecting(e)
	case StateBoxSelecting:
		return m.handleBoxSelecting(e)
	case StateDragging:
		return m.handleDragging(e)
	}
	return nil
}

// Forget drops removed nodes and edges from every selection
func (m *Machine) Forget(nodes []valueobjects.NodeID, edges []valueobjects.EdgeID) {
	goneNodes := make(map[valueobjects.NodeID]bool, len(nodes))
	for _, id := range nodes {
		goneNodes[id] = true
	}
	goneEdges := make(map[valueobjects.EdgeID]bool, len(edges))
	for _, id := range edges {
		goneEdges[id] = true
	}
	m.selectedNodes = keepNodes(m.selectedNodes, goneNodes)
	m.group = keepNodes(m.group, goneNodes)
	var edgesLeft []valueobjects.EdgeID
	for _, id := range m.selectedEdges {
		if !goneEdges[id] {
			edgesLeft = append(edgesLeft, id)
		}
	}
	m.selectedEdges = edgesLeft

	if m.state == StateDragging && goneNodes[m.dragNode] {
		m.state = m.dragOrigin
		m.dragNode = ""
	}
	if m.state == StateBoxSelecting && len(m.group) == 0 {
		m.state = StateNormal
	}
	if m.state == StateSelecting && len(m.selectedNodes) == 0 && len(m.selectedEdges) == 0 {
		m.state = StateNormal
	}
}

func (m *Machine) handleNormal(e Event) []Effect {
	switch ev := e.(type) {
	case PointerDownOnNode:
		m.selectNode(ev.NodeID, false)
		m.state = StateSelecting
	case PointerDownOnEdge:
		m.selectEdge(ev.EdgeID, false)
		m.state = StateSelecting
	case DragRectangleRelease:
		return m.enterBox(ev.NodeIDs)
	case DragStart:
		m.selectNode(ev.NodeID, false)
		m.startDrag(StateSelecting, ev.NodeID, ev.At)
	}
	return nil
}

func (m *Machine) handleSelecting(e Event) []Effect {
	switch ev := e.(type) {
	case PointerDownOnNode:
		m.selectNode(ev.NodeID, ev.Additive)
	case PointerDownOnEdge:
		m.selectEdge(ev.EdgeID, ev.Additive)
	case PointerDownOnBlank:
		m.clearSelection()
		m.state = StateNormal
	case DragRectangleRelease:
		return m.enterBox(ev.NodeIDs)
	case DragStart:
		if !containsNode(m.selectedNodes, ev.NodeID) {
			m.selectNode(ev.NodeID, false)
		}
		m.startDrag(StateSelecting, ev.NodeID, ev.At)
	}
	return nil
}

func (m *Machine) handleBoxSelecting(e Event) []Effect {
	switch ev := e.(type) {
	case PointerDownOnNode:
		if containsNode(m.group, ev.NodeID) {
			m.startDrag(StateBoxSelecting, ev.NodeID, ev.At)
			return nil
		}
		return m.leaveBox()
	case DragStart:
		if containsNode(m.group, ev.NodeID) {
			m.startDrag(StateBoxSelecting, ev.NodeID, ev.At)
			return nil
		}
		return m.leaveBox()
	case PointerDownOnEdge, PointerDownOnBlank:
		return m.leaveBox()
	case DragRectangleRelease:
		if len(ev.NodeIDs) == 0 {
			return m.leaveBox()
		}
		m.group = dedupe(ev.NodeIDs)
		return []Effect{Persist{}}
	}
	return nil
}

func (m *Machine) handleDragging(e Event) []Effect {
	switch ev := e.(type) {
	case DragStart:
		if ev.NodeID == m.dragNode {
			m.lastPos = ev.At
		}
	case DragMove:
		if ev.NodeID != m.dragNode {
			return nil
		}
		return m.follow(ev.At)
	case DragEnd:
		if ev.NodeID != m.dragNode {
			return nil
		}
		effects := m.follow(ev.At)
		m.state = m.dragOrigin
		m.dragNode = ""
		if m.moved {
			effects = append(effects, Persist{})
		}
		m.moved = false
		return effects
	}
	return nil
}

// follow translates the dragging set by the dragged node's movement since
// the last frame. Deltas rather than absolute positions keep the group
// aligned under zoom and pan.
func (m *Machine) follow(at valueobjects.Position) []Effect {
	dx, dy := m.lastPos.Delta(at)
	m.lastPos = at
	if dx == 0 && dy == 0 {
		return nil
	}
	m.moved = true
	targets := []valueobjects.NodeID{m.dragNode}
	if m.dragOrigin == StateBoxSelecting {
		targets = append([]valueobjects.NodeID(nil), m.group...)
	}
	return []Effect{Translate{NodeIDs: targets, DX: dx, DY: dy}}
}

func (m *Machine) startDrag(origin State, id valueobjects.NodeID, at valueobjects.Position) {
	m.dragOrigin = origin
	m.dragNode = id
	m.lastPos = at
	m.moved = false
	m.state = StateDragging
}

func (m *Machine) enterBox(ids []valueobjects.NodeID) []Effect {
	if len(ids) == 0 {
		return nil
	}
	m.clearSelection()
	m.group = dedupe(ids)
	m.state = StateBoxSelecting
	return []Effect{Persist{}}
}

func (m *Machine) leaveBox() []Effect {
	m.group = nil
	m.clearSelection()
	m.state = StateNormal
	return []Effect{Persist{}}
}

func (m *Machine) selectNode(id valueobjects.NodeID, additive bool) {
	if !additive {
		m.clearSelection()
	}
	if !containsNode(m.selectedNodes, id) {
		m.selectedNodes = append(m.selectedNodes, id)
	}
}

func (m *Machine) selectEdge(id valueobjects.EdgeID, additive bool) {
	if !additive {
		m.clearSelection()
	}
	for _, e := range m.selectedEdges {
		if e == id {
			return
		}
	}
	m.selectedEdges = append(m.selectedEdges, id)
}

func (m *Machine) clearSelection() {
	m.selectedNodes = nil
	m.selectedEdges = nil
}

func containsNode(ids []valueobjects.NodeID, id valueobjects.NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func dedupe(ids []valueobjects.NodeID) []valueobjects.NodeID {
	seen := make(map[valueobjects.NodeID]bool, len(ids))
	out := make([]valueobjects.NodeID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func keepNodes(ids []valueobjects.NodeID, gone map[valueobjects.NodeID]bool) []valueobjects.NodeID {
	var out []valueobjects.NodeID
	for _, id := range ids {
		if !gone[id] {
			out = append(out, id)
		}
	}
	return out
}
