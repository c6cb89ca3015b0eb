package persistence

import (
	"testing"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_DropsDanglingEdges(t *testing.T) {
	doc := `{"nodes":[{"id":"1","position":{"x":0,"y":0},"data":{"label":"a"}}],
	         "edges":[{"id":"e1-2","source":"1","target":"2"}]}`

	g, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
}

func TestEncodeDecode_Starter(t *testing.T) {
	data, err := Encode(aggregates.StarterGraph())
	require.NoError(t, err)

	g, err := Decode(data)
	require.NoError(t, err)
	_, ok := g.Edge(valueobjects.EdgeID("e2-3"))
	assert.True(t, ok)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
