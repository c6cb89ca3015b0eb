package aggregates

import (
	"cognitivediary/domain/core/entities"
	"cognitivediary/domain/core/valueobjects"
)

// StarterGraph is installed for users with nothing saved yet: three
// normal nodes in a row joined by two user edges.
func StarterGraph() *Graph {
	labels := []string{"开始节点", "中间节点", "结束节点"}
	xs := []float64{100, 350, 600}

	nodes := make([]entities.Node, 0, len(labels))
	for i, label := range labels {
		n, err := entities.NewNode(valueobjects.NodeIDFromInt(int64(i+1)), valueobjects.MustPosition(xs[i], 100), entities.NodeKindNormal, label)
		if err != nil {
			panic(err)
		}
		nodes = append(nodes, n)
	}

	var edges []entities.Edge
	for i := 1; i < len(nodes); i++ {
		e, err := entities.NewEdge("", nodes[i-1].ID(), nodes[i].ID(), entities.EdgeKindUserDrawn, valueobjects.EdgeStyle{})
		if err != nil {
			panic(err)
		}
		edges = append(edges, e)
	}

	g, _, err := FromParts(nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}
