package graph

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var curveMnemonics = []string{
	"GR", "NPHI", "RHOB", "DT", "CALI", "RDEP", "RMED", "RSHA", "SP", "PEF", "DRHO",
	"BS", "ROP", "DTS", "RXO", "SGR", "CGR", "POTA", "THOR", "URAN", "TENS",
}

func testLogger() *slog.Logger {
	return helper.NewLogger(&bytes.Buffer{}, slog.LevelDebug)
}

func newWell(t *testing.T, wellID string) *model.Node {
	node, err := model.NewNode("well:"+wellID, model.NodeTypeWellDocument, map[string]any{
		model.AttrWellID:   wellID,
		model.AttrWellName: wellID,
	})
	require.NoError(t, err)
	return node
}

func newCurve(t *testing.T, wellID, mnemonic string) *model.Node {
	node, err := model.NewNode(fmt.Sprintf("curve:%s:%s", wellID, mnemonic), model.NodeTypeLogCurve, map[string]any{
		model.AttrMnemonic: mnemonic,
		model.AttrWellID:   wellID,
	})
	require.NoError(t, err)
	return node
}

// buildWellIndex creates one well with all 21 curves describing it
func buildWellIndex(t *testing.T) *Index {
	well := newWell(t, "15_9-13")
	nodes := []*model.Node{well}
	var edges []*model.Edge
	for _, m := range curveMnemonics {
		curve := newCurve(t, "15_9-13", m)
		nodes = append(nodes, curve)
		edges = append(edges, &model.Edge{SourceID: curve.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes})
	}
	return NewIndex(nodes, edges, testLogger())
}

func TestNewIndex(t *testing.T) {
	t.Run("Drops dangling edges and counts them", func(t *testing.T) {
		var buf bytes.Buffer
		well := newWell(t, "15_9-13")
		curve := newCurve(t, "15_9-13", "GR")

		idx := NewIndex(
			[]*model.Node{well, curve},
			[]*model.Edge{
				{SourceID: curve.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes},
				{SourceID: "curve:15_9-13:MISSING", TargetID: well.ID, Type: model.EdgeTypeDescribes},
				{SourceID: curve.ID, TargetID: "well:unknown", Type: model.EdgeTypeDescribes},
			},
			helper.NewLogger(&buf, slog.LevelWarn),
		)

		stats := idx.Stats()
		assert.Equal(t, 2, stats.Nodes)
		assert.Equal(t, 1, stats.Edges)
		assert.Equal(t, 2, stats.DroppedEdges)
		assert.Contains(t, buf.String(), "Dropping dangling edge")
		assert.Empty(t, idx.Outgoing("curve:15_9-13:MISSING"))
	})

	t.Run("Keeps first node for duplicate ids", func(t *testing.T) {
		first := newWell(t, "15_9-13")
		second, err := model.NewNode(first.ID, model.NodeTypeWellDocument, map[string]any{model.AttrWellName: "other"})
		require.NoError(t, err)

		idx := NewIndex([]*model.Node{first, second, nil}, nil, testLogger())

		node, err := idx.GetNode(first.ID)
		require.NoError(t, err)
		assert.Same(t, first, node)
		assert.Equal(t, 1, idx.Stats().DuplicateNodes)
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("Ignores repeated edges", func(t *testing.T) {
		well := newWell(t, "15_9-13")
		curve := newCurve(t, "15_9-13", "GR")
		edge := &model.Edge{SourceID: curve.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes}

		idx := NewIndex([]*model.Node{well, curve}, []*model.Edge{edge, edge}, testLogger())

		assert.Equal(t, 1, idx.Stats().Edges)
		assert.Equal(t, 1, idx.Stats().DuplicateEdges)
		assert.Len(t, idx.Incoming(well.ID), 1)
	})

	t.Run("Nil snapshot builds an empty index", func(t *testing.T) {
		idx := NewIndexFromSnapshot(nil, testLogger())
		assert.Equal(t, 0, idx.Len())
	})
}

func TestIndexSymmetry(t *testing.T) {
	well := newWell(t, "15_9-13")
	other := newWell(t, "15_9-19")
	gr := newCurve(t, "15_9-13", "GR")
	nphi := newCurve(t, "15_9-13", "NPHI")
	dt := newCurve(t, "15_9-19", "DT")
	edges := []*model.Edge{
		{SourceID: gr.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes},
		{SourceID: nphi.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes},
		{SourceID: dt.ID, TargetID: other.ID, Type: model.EdgeTypeDescribes},
		{SourceID: gr.ID, TargetID: nphi.ID, Type: model.EdgeTypeReportsOn},
		{SourceID: well.ID, TargetID: well.ID, Type: model.EdgeTypeReportsOn},
	}
	idx := NewIndex([]*model.Node{well, other, gr, nphi, dt}, edges, testLogger())

	t.Run("Every edge is in both adjacency maps", func(t *testing.T) {
		for _, e := range edges {
			assert.Contains(t, idx.Outgoing(e.SourceID), Adjacency{NodeID: e.TargetID, Type: e.Type})
			assert.Contains(t, idx.Incoming(e.TargetID), Adjacency{NodeID: e.SourceID, Type: e.Type})
		}
	})

	t.Run("Adjacency sizes sum to the degree", func(t *testing.T) {
		for _, n := range idx.Nodes() {
			assert.Equal(t, idx.Degree(n.ID), len(idx.Outgoing(n.ID))+len(idx.Incoming(n.ID)), n.ID)
		}
	})

	t.Run("Adjacency copies do not leak", func(t *testing.T) {
		out := idx.Outgoing(gr.ID)
		out[0].NodeID = "changed"
		assert.NotEqual(t, "changed", idx.Outgoing(gr.ID)[0].NodeID)
	})
}

func TestGetNode(t *testing.T) {
	idx := buildWellIndex(t)

	t.Run("Returns known node", func(t *testing.T) {
		node, err := idx.GetNode("well:15_9-13")
		require.NoError(t, err)
		assert.Equal(t, model.NodeTypeWellDocument, node.Type)
	})

	t.Run("Returns typed not found", func(t *testing.T) {
		node, err := idx.GetNode("well:99_9-99")
		assert.ErrorIs(t, err, ErrNodeNotFound)
		assert.Nil(t, node)
	})
}

func TestExpand(t *testing.T) {
	idx := buildWellIndex(t)

	t.Run("Incoming single hop returns well and its 21 curves", func(t *testing.T) {
		results, err := idx.Expand([]string{"well:15_9-13"}, model.DirectionIncoming, 1)

		require.NoError(t, err)
		require.Len(t, results, 22)
		assert.Equal(t, "well:15_9-13", results[0].Node.ID, "Expected seed first")
		assert.Equal(t, 0, results[0].Distance)
		for i, r := range results[1:] {
			assert.Equal(t, 1, r.Distance)
			assert.Equal(t, model.NodeTypeLogCurve, r.Node.Type)
			assert.Equal(t, "curve:15_9-13:"+curveMnemonics[i], r.Node.ID, "Expected discovery order")
			assert.Equal(t, []string{"well:15_9-13", r.Node.ID}, r.Path)
		}
		assert.Equal(t, 22.0, ExpansionRatio(results))
	})

	t.Run("Outgoing from the well finds nothing", func(t *testing.T) {
		results, err := idx.Expand([]string{"well:15_9-13"}, model.DirectionOutgoing, 1)

		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Both directions over two hops reach sibling curves", func(t *testing.T) {
		results, err := idx.Expand([]string{"curve:15_9-13:GR"}, model.DirectionBoth, 2)

		require.NoError(t, err)
		require.Len(t, results, 22)
		assert.Equal(t, "curve:15_9-13:GR", results[0].Node.ID)
		assert.Equal(t, "well:15_9-13", results[1].Node.ID)
		assert.Equal(t, 2, results[2].Distance)
	})

	t.Run("Seeds are never duplicated", func(t *testing.T) {
		results, err := idx.Expand(
			[]string{"well:15_9-13", "curve:15_9-13:GR", "well:15_9-13"},
			model.DirectionIncoming, 1,
		)

		require.NoError(t, err)
		require.Len(t, results, 22)
		assert.Equal(t, "curve:15_9-13:GR", results[1].Node.ID)
		assert.Equal(t, 0, results[1].Distance, "Expected seed to keep distance 0")
		assert.Equal(t, 11.0, ExpansionRatio(results))
	})

	t.Run("Unknown seeds are skipped", func(t *testing.T) {
		results, err := idx.Expand([]string{"well:nope"}, model.DirectionBoth, 2)

		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, 0.0, ExpansionRatio(results))
	})

	t.Run("Edge type filter restricts traversal", func(t *testing.T) {
		results, err := idx.Expand([]string{"well:15_9-13"}, model.DirectionIncoming, 1, model.EdgeTypeReportsOn)

		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Rejects less than one hop", func(t *testing.T) {
		_, err := idx.Expand([]string{"well:15_9-13"}, model.DirectionIncoming, 0)
		assert.ErrorIs(t, err, ErrInvalidHops)
	})

	t.Run("Rejects unknown direction", func(t *testing.T) {
		_, err := idx.Expand([]string{"well:15_9-13"}, model.Direction("sideways"), 1)
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})
}

func TestCurveWellRoundTrip(t *testing.T) {
	idx := buildWellIndex(t)

	curves, err := idx.GetCurvesForWell("well:15_9-13")
	require.NoError(t, err)
	require.Len(t, curves, 21)

	for _, curve := range curves {
		well, ok, err := idx.GetWellForCurve(curve.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "well:15_9-13", well.ID)
	}

	t.Run("Curve without well is not an error", func(t *testing.T) {
		orphan := newCurve(t, "15_9-13", "GR")
		idx := NewIndex([]*model.Node{orphan}, nil, testLogger())

		well, ok, err := idx.GetWellForCurve(orphan.ID)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, well)
	})

	t.Run("Unknown ids return not found", func(t *testing.T) {
		_, err := idx.GetCurvesForWell("well:nope")
		assert.ErrorIs(t, err, ErrNodeNotFound)

		_, _, err = idx.GetWellForCurve("curve:nope")
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestConcurrentReaders(t *testing.T) {
	idx := buildWellIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := idx.Expand([]string{"well:15_9-13"}, model.DirectionIncoming, 1)
			assert.NoError(t, err)
			assert.Len(t, results, 22)
			_, err = idx.GetNode("curve:15_9-13:GR")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestNodesOfType(t *testing.T) {
	idx := buildWellIndex(t)

	assert.Len(t, idx.NodesOfType(model.NodeTypeLogCurve), 21)
	assert.Len(t, idx.NodesOfType(model.NodeTypeWellDocument), 1)
	assert.Empty(t, idx.NodesOfType(model.NodeTypeWaterSite))
	assert.Len(t, ResultNodes([]*TraversalResult{{Node: idx.Nodes()[0]}}), 1)
}
