package api

import (
	"encoding/json"
	"testing"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGraph_LegacyPayload(t *testing.T) {
	raw := `{
		"nodes": [
			{"id": "1", "type": "custom", "position": {"x": 100, "y": 100}, "data": {"label": "开始节点"}},
			{"id": "2", "type": "custom", "position": {"x": 350, "y": 100}, "data": {"label": "中间节点"}},
			{"id": "7", "type": "textBlock", "position": {"x": 0, "y": 0}, "data": {"label": "note"}}
		],
		"edges": [
			{"id": "e1-2", "source": "1", "target": "2"},
			{"id": "llm-2-1", "source": "2", "target": "1", "style": {"stroke": "red", "strokeWidth": 3}},
			{"id": "e2-9", "source": "2", "target": "9"}
		]
	}`
	var body LoadDataResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	g, skipped, err := ToGraph(body.Nodes, body.Edges)

	require.NoError(t, err)
	assert.Equal(t, []valueobjects.EdgeID{"e2-9"}, skipped)

	plain, ok := g.Edge("e1-2")
	require.True(t, ok)
	assert.Equal(t, valueobjects.DefaultEdgeStyle(), plain.Style())
	assert.Equal(t, entities.EdgeKindUserDrawn, plain.Kind())

	answer, ok := g.Edge("llm-2-1")
	require.True(t, ok)
	assert.Equal(t, entities.EdgeKindEnrichment, answer.Kind())
	assert.Equal(t, "red", answer.Style().Stroke)

	note, ok := g.Node("7")
	require.True(t, ok)
	assert.Equal(t, entities.NodeKindAnnotation, note.Kind())
}

func TestFromGraph_HighlightSurvivesRoundTrip(t *testing.T) {
	g := aggregates.StarterGraph()
	g = services.ApplyHighlight(g, services.TraceChain(g, "3"))

	nodes, edges := FromGraph(g)
	for _, e := range edges {
		assert.Equal(t, ChainEdgeClassName, e.ClassName)
		assert.Equal(t, MarkerArrowClosed, e.MarkerEnd.Type)
	}
	assert.True(t, nodes[0].Data.IsHighlighted)

	back, skipped, err := ToGraph(nodes, edges)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, g.NodeIDs(), back.NodeIDs())

	cleared := services.ClearHighlight(back)
	e, _ := cleared.Edge("e1-2")
	assert.Equal(t, valueobjects.DefaultEdgeStyle(), e.Style())
}

func TestToGraph_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
	}{
		{name: "blank node id", nodes: []Node{{ID: " "}}},
		{name: "duplicate node", nodes: []Node{{ID: "1"}, {ID: "1"}}},
		{name: "self loop", nodes: []Node{{ID: "1"}}, edges: []Edge{{ID: "e1-1", Source: "1", Target: "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ToGraph(tt.nodes, tt.edges)
			assert.Error(t, err)
		})
	}
}
