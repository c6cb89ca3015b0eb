package entities

import (
	"testing"

	"cognitivediary/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	tests := []struct {
		name    string
		id      valueobjects.NodeID
		kind    NodeKind
		wantErr bool
	}{
		{name: "normal node", id: "1", kind: NodeKindNormal},
		{name: "annotation", id: "2", kind: NodeKindAnnotation},
		{name: "empty id", id: "", kind: NodeKindNormal, wantErr: true},
		{name: "unknown kind", id: "3", kind: "sticky", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNode(tt.id, valueobjects.MustPosition(0, 0), tt.kind, "hello")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, n.ID())
			assert.False(t, n.IsLocked())
		})
	}
}

func TestNode_WithCopiesLeaveOriginalUntouched(t *testing.T) {
	// Arrange
	original, err := NewNode("1", valueobjects.MustPosition(10, 20), NodeKindNormal, "idea")
	require.NoError(t, err)

	// Act
	changed := original.WithContent("better idea").WithLocked(true).WithHighlighted(true)

	// Assert
	assert.Equal(t, "idea", original.Content())
	assert.False(t, original.IsLocked())
	assert.Equal(t, "better idea", changed.Content())
	assert.True(t, changed.IsLocked())
	assert.True(t, changed.IsHighlighted())
}

func TestReconstructNode_RoundTripsState(t *testing.T) {
	state := NodeState{
		ID:        "9",
		Position:  valueobjects.MustPosition(1, 2),
		Kind:      NodeKindTransient,
		Content:   "Thinking...",
		Locked:    true,
		Collapsed: true,
		Width:     240,
	}

	n, err := ReconstructNode(state)
	require.NoError(t, err)
	assert.Equal(t, state, n.State())
}

func TestNode_AnnotationIsNotConnectable(t *testing.T) {
	n, err := NewNode("1", valueobjects.MustPosition(0, 0), NodeKindAnnotation, "note")
	require.NoError(t, err)
	assert.False(t, n.IsConnectable())
}

func TestNewEdge(t *testing.T) {
	t.Run("derives id and default style", func(t *testing.T) {
		e, err := NewEdge("", "1", "2", EdgeKindEnrichment, valueobjects.EdgeStyle{})
		require.NoError(t, err)
		assert.Equal(t, valueobjects.EdgeID("llm-1-2"), e.ID())
		assert.Equal(t, valueobjects.DefaultEdgeStyle(), e.Style())
		assert.True(t, e.Touches("2"))
		assert.False(t, e.Touches("3"))
	})

	t.Run("rejects self loop", func(t *testing.T) {
		_, err := NewEdge("", "1", "1", EdgeKindUserDrawn, valueobjects.EdgeStyle{})
		assert.Error(t, err)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewEdge("", "1", "2", "dotted", valueobjects.EdgeStyle{})
		assert.Error(t, err)
	})
}
