package interaction

import (
	"testing"

	"cognitivediary/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) valueobjects.Position {
	return valueobjects.MustPosition(x, y)
}

func ids(raw ...string) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(raw))
	for i, r := range raw {
		out[i] = valueobjects.NodeID(r)
	}
	return out
}

func countPersist(effects []Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(Persist); ok {
			n++
		}
	}
	return n
}

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		events      []Event
		wantState   State
		wantPersist int
	}{
		{
			name:      "press on node selects",
			events:    []Event{PointerDownOnNode{NodeID: "1"}},
			wantState: StateSelecting,
		},
		{
			name:      "press on blank deselects",
			events:    []Event{PointerDownOnNode{NodeID: "1"}, PointerDownOnBlank{}},
			wantState: StateNormal,
		},
		{
			name:      "empty rectangle stays normal",
			events:    []Event{DragRectangleRelease{}},
			wantState: StateNormal,
		},
		{
			name:        "rectangle enters box selection",
			events:      []Event{DragRectangleRelease{NodeIDs: ids("1", "2")}},
			wantState:   StateBoxSelecting,
			wantPersist: 1,
		},
		{
			name: "press on member starts group drag",
			events: []Event{
				DragRectangleRelease{NodeIDs: ids("1", "2")},
				PointerDownOnNode{NodeID: "1", At: pos(0, 0)},
			},
			wantState:   StateDragging,
			wantPersist: 1,
		},
		{
			name: "press outside group leaves box selection",
			events: []Event{
				DragRectangleRelease{NodeIDs: ids("1", "2")},
				PointerDownOnNode{NodeID: "3"},
			},
			wantState:   StateNormal,
			wantPersist: 2,
		},
		{
			name: "press on blank leaves box selection",
			events: []Event{
				DragRectangleRelease{NodeIDs: ids("1", "2")},
				PointerDownOnBlank{},
			},
			wantState:   StateNormal,
			wantPersist: 2,
		},
		{
			name: "group drag returns to box selection",
			events: []Event{
				DragRectangleRelease{NodeIDs: ids("1", "2")},
				PointerDownOnNode{NodeID: "1", At: pos(0, 0)},
				DragMove{NodeID: "1", At: pos(5, 5)},
				DragEnd{NodeID: "1", At: pos(5, 5)},
			},
			wantState:   StateBoxSelecting,
			wantPersist: 2,
		},
		{
			name: "single drag returns to selecting",
			events: []Event{
				PointerDownOnNode{NodeID: "1", At: pos(0, 0)},
				DragStart{NodeID: "1", At: pos(0, 0)},
				DragMove{NodeID: "1", At: pos(1, 0)},
				DragEnd{NodeID: "1", At: pos(2, 0)},
			},
			wantState:   StateSelecting,
			wantPersist: 1,
		},
		{
			name: "click without movement does not persist",
			events: []Event{
				DragRectangleRelease{NodeIDs: ids("1", "2")},
				PointerDownOnNode{NodeID: "2", At: pos(3, 3)},
				DragEnd{NodeID: "2", At: pos(3, 3)},
			},
			wantState:   StateBoxSelecting,
			wantPersist: 1,
		},
		{
			name: "blank press ignored while dragging",
			events: []Event{
				DragStart{NodeID: "1", At: pos(0, 0)},
				PointerDownOnBlank{},
			},
			wantState: StateDragging,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			persists := 0
			for _, ev := range tt.events {
				persists += countPersist(m.Handle(ev))
			}
			assert.Equal(t, tt.wantState, m.State())
			assert.Equal(t, tt.wantPersist, persists)
		})
	}
}

func TestMachine_GroupDragTranslatesAllMembersByDelta(t *testing.T) {
	m := NewMachine()
	m.Handle(DragRectangleRelease{NodeIDs: ids("1", "2", "3")})
	m.Handle(PointerDownOnNode{NodeID: "2", At: pos(100, 100)})

	first := m.Handle(DragMove{NodeID: "2", At: pos(110, 95)})
	second := m.Handle(DragMove{NodeID: "2", At: pos(112, 95)})

	require.Len(t, first, 1)
	tr := first[0].(Translate)
	assert.Equal(t, ids("1", "2", "3"), tr.NodeIDs)
	assert.Equal(t, 10.0, tr.DX)
	assert.Equal(t, -5.0, tr.DY)

	require.Len(t, second, 1)
	tr = second[0].(Translate)
	assert.Equal(t, 2.0, tr.DX)
	assert.Equal(t, 0.0, tr.DY)
}

func TestMachine_DragFramesNeverPersist(t *testing.T) {
	m := NewMachine()
	m.Handle(DragStart{NodeID: "1", At: pos(0, 0)})
	for i := 1; i <= 20; i++ {
		effects := m.Handle(DragMove{NodeID: "1", At: pos(float64(i), 0)})
		assert.Zero(t, countPersist(effects))
	}
	assert.Equal(t, 1, countPersist(m.Handle(DragEnd{NodeID: "1", At: pos(20, 0)})))
}

func TestMachine_SingleDragMovesOnlyDraggedNode(t *testing.T) {
	m := NewMachine()
	m.Handle(PointerDownOnNode{NodeID: "1"})
	m.Handle(PointerDownOnNode{NodeID: "2", Additive: true})
	m.Handle(DragStart{NodeID: "2", At: pos(0, 0)})

	effects := m.Handle(DragMove{NodeID: "2", At: pos(4, 4)})

	require.Len(t, effects, 1)
	assert.Equal(t, ids("2"), effects[0].(Translate).NodeIDs)
	assert.Equal(t, ids("1", "2"), m.SelectedNodes())
}

func TestMachine_MovesOfOtherNodesIgnoredWhileDragging(t *testing.T) {
	m := NewMachine()
	m.Handle(DragStart{NodeID: "1", At: pos(0, 0)})
	assert.Empty(t, m.Handle(DragMove{NodeID: "9", At: pos(50, 50)}))
	assert.Empty(t, m.Handle(DragEnd{NodeID: "9", At: pos(50, 50)}))
	assert.Equal(t, StateDragging, m.State())
}

func TestMachine_Selection(t *testing.T) {
	m := NewMachine()
	m.Handle(PointerDownOnNode{NodeID: "1"})
	m.Handle(PointerDownOnNode{NodeID: "2", Additive: true})
	assert.Equal(t, ids("1", "2"), m.SelectedNodes())

	m.Handle(PointerDownOnEdge{EdgeID: "e1-2"})
	assert.Empty(t, m.SelectedNodes())
	assert.Equal(t, []valueobjects.EdgeID{"e1-2"}, m.SelectedEdges())

	m.Handle(DragRectangleRelease{NodeIDs: ids("3", "3", "4")})
	assert.Equal(t, ids("3", "4"), m.SelectedNodes())
	assert.Empty(t, m.SelectedEdges())
}

func TestMachine_Forget(t *testing.T) {
	t.Run("empties box selection", func(t *testing.T) {
		m := NewMachine()
		m.Handle(DragRectangleRelease{NodeIDs: ids("1", "2")})
		m.Forget(ids("1", "2"), nil)
		assert.Equal(t, StateNormal, m.State())
		assert.Empty(t, m.Group())
	})

	t.Run("keeps survivors selected", func(t *testing.T) {
		m := NewMachine()
		m.Handle(PointerDownOnNode{NodeID: "1"})
		m.Handle(PointerDownOnNode{NodeID: "2", Additive: true})
		m.Forget(ids("1"), nil)
		assert.Equal(t, StateSelecting, m.State())
		assert.Equal(t, ids("2"), m.SelectedNodes())
	})

	t.Run("ends drag of removed node", func(t *testing.T) {
		m := NewMachine()
		m.Handle(DragRectangleRelease{NodeIDs: ids("1", "2")})
		m.Handle(PointerDownOnNode{NodeID: "1", At: pos(0, 0)})
		m.Forget(ids("1"), nil)
		assert.Equal(t, StateBoxSelecting, m.State())
		assert.Equal(t, ids("2"), m.Group())
	})
}
