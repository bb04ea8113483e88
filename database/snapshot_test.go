package database

import (
	"io"
	"log/slog"
	"testing"

	"github.com/siherrmann/wellgraph/core/graph"
	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	nodes, edges := initHandlers(t)

	well := newWell(t, "15_9-13", 3450)
	gr := newCurve(t, "15_9-13", "GR")
	dt := newCurve(t, "15_9-13", "DT")
	snapshot := &model.Snapshot{
		Nodes: []*model.Node{well, gr, dt},
		Edges: []*model.Edge{
			{SourceID: gr.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes},
			{SourceID: dt.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes},
			{SourceID: "curve:15_9-13:RHOB", TargetID: well.ID, Type: model.EdgeTypeDescribes},
		},
	}

	t.Run("Insert and read back a snapshot", func(t *testing.T) {
		err := InsertSnapshot(nodes, edges, snapshot, map[string][]float32{well.ID: {1, 0, 0}})
		require.NoError(t, err)

		stored, err := SelectSnapshot(nodes, edges)
		require.NoError(t, err)
		assert.Len(t, stored.Nodes, 3)
		assert.Len(t, stored.Edges, 3)
	})

	t.Run("Stored snapshot builds a graph index", func(t *testing.T) {
		stored, err := SelectSnapshot(nodes, edges)
		require.NoError(t, err)

		index := graph.NewIndexFromSnapshot(stored, helper.NewLogger(io.Discard, slog.LevelWarn))
		assert.Equal(t, 3, index.Len())
		assert.Equal(t, 1, index.Stats().DroppedEdges)

		curves, err := index.GetCurvesForWell(well.ID)
		require.NoError(t, err)
		assert.Len(t, curves, 2)
	})
}
