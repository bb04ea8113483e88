package database

import (
	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
)

// SelectSnapshot reads all nodes and edges a graph index is built from
func SelectSnapshot(nodes NodesDBHandlerFunctions, edges EdgesDBHandlerFunctions) (*model.Snapshot, error) {
	allNodes, err := nodes.SelectAllNodes()
	if err != nil {
		return nil, helper.NewError("select nodes", err)
	}

	allEdges, err := edges.SelectAllEdges()
	if err != nil {
		return nil, helper.NewError("select edges", err)
	}

	return &model.Snapshot{Nodes: allNodes, Edges: allEdges}, nil
}

// InsertSnapshot stores the nodes and edges of a snapshot.
// embeddings maps node ids to their embedding, nodes without one are stored without.
func InsertSnapshot(nodes NodesDBHandlerFunctions, edges EdgesDBHandlerFunctions, snapshot *model.Snapshot, embeddings map[string][]float32) error {
	for _, node := range snapshot.Nodes {
		if err := nodes.InsertNode(node, embeddings[node.ID]); err != nil {
			return helper.NewError("insert node "+node.ID, err)
		}
	}
	for _, edge := range snapshot.Edges {
		if err := edges.InsertEdge(edge); err != nil {
			return helper.NewError("insert edge", err)
		}
	}
	return nil
}
