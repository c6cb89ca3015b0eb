// Package persistence holds the snapshot encoding shared by every storage
// backend. A snapshot is stored as the same node/edge document the editor
// exchanges over HTTP, so any backend can be read back by any client.
package persistence

import (
	"encoding/json"
	"fmt"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/pkg/api"
)

// StampLayout formats save times with a fixed width so stored stamps
// compare correctly as strings.
const StampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Document is the stored form of one user's graph
type Document struct {
	Nodes []api.Node `json:"nodes"`
	Edges []api.Edge `json:"edges"`
}

// Encode serializes g
func Encode(g *aggregates.Graph) ([]byte, error) {
	nodes, edges := api.FromGraph(g)
	data, err := json.Marshal(Document{Nodes: nodes, Edges: edges})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a stored snapshot. Edges pointing at missing nodes are
// dropped rather than failing the whole load.
func Decode(data []byte) (*aggregates.Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	g, _, err := api.ToGraph(doc.Nodes, doc.Edges)
	if err != nil {
		return nil, fmt.Errorf("stored snapshot is invalid: %w", err)
	}
	return g, nil
}
