package graph

import (
	"errors"
	"log/slog"

	"github.com/siherrmann/wellgraph/model"
)

var (
	// ErrNodeNotFound is returned for lookups of ids that are not part of the index
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidHops is returned when a traversal is requested with less than one hop
	ErrInvalidHops = errors.New("max hops must be at least 1")
	// ErrInvalidDirection is returned for unknown traversal directions
	ErrInvalidDirection = errors.New("invalid traversal direction")
)

// Adjacency is one entry of an adjacency list
type Adjacency struct {
	NodeID string
	Type   model.EdgeType
}

// Stats describes how an index was built
type Stats struct {
	Nodes          int `json:"nodes"`
	Edges          int `json:"edges"`
	DroppedEdges   int `json:"dropped_edges"`   // edges referencing missing nodes
	DuplicateNodes int `json:"duplicate_nodes"` // later nodes with an already used id
	DuplicateEdges int `json:"duplicate_edges"`
}

// TraversalResult contains a node and its distance from the nearest seed
type TraversalResult struct {
	Node     *model.Node
	Distance int
	EdgeType model.EdgeType // Edge the node was discovered through, empty for seeds
	Path     []string       // Node ids from the seed to this node
}

// Index is an immutable directed graph with bidirectional adjacency.
// It is safe for concurrent readers; nothing mutates it after NewIndex returns.
type Index struct {
	nodes    map[string]*model.Node
	order    []string
	outgoing map[string][]Adjacency
	incoming map[string][]Adjacency
	degree   map[string]int
	stats    Stats
}

// NewIndex builds an index from a node and edge snapshot.
// Edges referencing unknown nodes are dropped and counted, building never fails.
func NewIndex(nodes []*model.Node, edges []*model.Edge, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	idx := &Index{
		nodes:    make(map[string]*model.Node, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		outgoing: make(map[string][]Adjacency),
		incoming: make(map[string][]Adjacency),
		degree:   make(map[string]int),
	}

	for _, node := range nodes {
		if node == nil || node.ID == "" {
			continue
		}
		if _, exists := idx.nodes[node.ID]; exists {
			idx.stats.DuplicateNodes++
			logger.Warn("Duplicate node id, keeping first", slog.String("node_id", node.ID))
			continue
		}
		idx.nodes[node.ID] = node
		idx.order = append(idx.order, node.ID)
	}

	type edgeKey struct {
		source, target string
		edgeType       model.EdgeType
	}
	seen := make(map[edgeKey]bool, len(edges))

	for _, edge := range edges {
		if edge == nil {
			continue
		}
		_, sourceOK := idx.nodes[edge.SourceID]
		_, targetOK := idx.nodes[edge.TargetID]
		if !sourceOK || !targetOK {
			idx.stats.DroppedEdges++
			logger.Warn("Dropping dangling edge",
				slog.String("source_id", edge.SourceID),
				slog.String("target_id", edge.TargetID),
				slog.String("type", string(edge.Type)),
			)
			continue
		}

		key := edgeKey{edge.SourceID, edge.TargetID, edge.Type}
		if seen[key] {
			idx.stats.DuplicateEdges++
			continue
		}
		seen[key] = true

		// Both maps are only ever written here, together
		idx.outgoing[edge.SourceID] = append(idx.outgoing[edge.SourceID], Adjacency{NodeID: edge.TargetID, Type: edge.Type})
		idx.incoming[edge.TargetID] = append(idx.incoming[edge.TargetID], Adjacency{NodeID: edge.SourceID, Type: edge.Type})
		idx.degree[edge.SourceID]++
		idx.degree[edge.TargetID]++
		idx.stats.Edges++
	}

	idx.stats.Nodes = len(idx.order)

	logger.Info("Built graph index",
		slog.Int("nodes", idx.stats.Nodes),
		slog.Int("edges", idx.stats.Edges),
		slog.Int("dropped_edges", idx.stats.DroppedEdges),
	)

	return idx
}

// NewIndexFromSnapshot builds an index from a snapshot
func NewIndexFromSnapshot(snapshot *model.Snapshot, logger *slog.Logger) *Index {
	if snapshot == nil {
		return NewIndex(nil, nil, logger)
	}
	return NewIndex(snapshot.Nodes, snapshot.Edges, logger)
}

// Stats returns the build statistics
func (idx *Index) Stats() Stats {
	return idx.stats
}

// Len returns the number of nodes
func (idx *Index) Len() int {
	return len(idx.order)
}

// GetNode returns the node with the given id or ErrNodeNotFound
func (idx *Index) GetNode(id string) (*model.Node, error) {
	node, ok := idx.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// HasNode returns true if the id is part of the index
func (idx *Index) HasNode(id string) bool {
	_, ok := idx.nodes[id]
	return ok
}

// Nodes returns all nodes in snapshot order
func (idx *Index) Nodes() []*model.Node {
	nodes := make([]*model.Node, len(idx.order))
	for i, id := range idx.order {
		nodes[i] = idx.nodes[id]
	}
	return nodes
}

// NodesOfType returns all nodes of the given type in snapshot order
func (idx *Index) NodesOfType(nodeType model.NodeType) []*model.Node {
	var nodes []*model.Node
	for _, id := range idx.order {
		if n := idx.nodes[id]; n.Type == nodeType {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Outgoing returns a copy of the outgoing adjacency of a node
func (idx *Index) Outgoing(id string) []Adjacency {
	return append([]Adjacency(nil), idx.outgoing[id]...)
}

// Incoming returns a copy of the incoming adjacency of a node
func (idx *Index) Incoming(id string) []Adjacency {
	return append([]Adjacency(nil), idx.incoming[id]...)
}

// Degree returns the number of edges touching a node
func (idx *Index) Degree(id string) int {
	return idx.degree[id]
}

// Expand performs a breadth-first traversal from the seeds.
// Results are in discovery order: seeds first, then hop 1, hop 2 and so on.
// Seeds are never duplicated, unknown seeds are skipped. If edge types are
// given only edges of those types are followed.
func (idx *Index) Expand(seeds []string, direction model.Direction, maxHops int, edgeTypes ...model.EdgeType) ([]*TraversalResult, error) {
	if maxHops < 1 {
		return nil, ErrInvalidHops
	}
	if !direction.IsValid() {
		return nil, ErrInvalidDirection
	}

	allowed := make(map[model.EdgeType]bool, len(edgeTypes))
	for _, t := range edgeTypes {
		allowed[t] = true
	}

	visited := make(map[string]bool, len(seeds))
	var results []*TraversalResult
	var frontier []*TraversalResult

	for _, id := range seeds {
		if visited[id] {
			continue
		}
		visited[id] = true

		node, ok := idx.nodes[id]
		if !ok {
			continue
		}
		seed := &TraversalResult{Node: node, Distance: 0, Path: []string{id}}
		results = append(results, seed)
		frontier = append(frontier, seed)
	}

	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []*TraversalResult

		for _, current := range frontier {
			for _, adj := range idx.neighbours(current.Node.ID, direction) {
				if len(allowed) > 0 && !allowed[adj.Type] {
					continue
				}
				if visited[adj.NodeID] {
					continue
				}
				visited[adj.NodeID] = true

				path := make([]string, len(current.Path), len(current.Path)+1)
				copy(path, current.Path)

				found := &TraversalResult{
					Node:     idx.nodes[adj.NodeID],
					Distance: hop,
					EdgeType: adj.Type,
					Path:     append(path, adj.NodeID),
				}
				results = append(results, found)
				next = append(next, found)
			}
		}

		frontier = next
	}

	return results, nil
}

func (idx *Index) neighbours(id string, direction model.Direction) []Adjacency {
	switch direction {
	case model.DirectionOutgoing:
		return idx.outgoing[id]
	case model.DirectionIncoming:
		return idx.incoming[id]
	default:
		out, in := idx.outgoing[id], idx.incoming[id]
		both := make([]Adjacency, 0, len(out)+len(in))
		return append(append(both, out...), in...)
	}
}

// GetCurvesForWell returns the curves describing a well, without the well itself
func (idx *Index) GetCurvesForWell(wellID string) ([]*model.Node, error) {
	if !idx.HasNode(wellID) {
		return nil, ErrNodeNotFound
	}

	results, err := idx.Expand([]string{wellID}, model.DirectionIncoming, 1, model.EdgeTypeDescribes)
	if err != nil {
		return nil, err
	}

	curves := make([]*model.Node, 0, len(results))
	for _, r := range results[1:] {
		curves = append(curves, r.Node)
	}
	return curves, nil
}

// GetWellForCurve returns the well a curve describes.
// A curve without well is reported with ok false and no error.
func (idx *Index) GetWellForCurve(curveID string) (*model.Node, bool, error) {
	if !idx.HasNode(curveID) {
		return nil, false, ErrNodeNotFound
	}

	results, err := idx.Expand([]string{curveID}, model.DirectionOutgoing, 1, model.EdgeTypeDescribes)
	if err != nil {
		return nil, false, err
	}
	if len(results) < 2 {
		return nil, false, nil
	}
	return results[1].Node, true, nil
}

// ResultNodes returns the nodes of traversal results in order
func ResultNodes(results []*TraversalResult) []*model.Node {
	nodes := make([]*model.Node, len(results))
	for i, r := range results {
		nodes[i] = r.Node
	}
	return nodes
}

// ExpansionRatio is the number of traversal results per seed, 0 without seeds
func ExpansionRatio(results []*TraversalResult) float64 {
	seeds := 0
	for _, r := range results {
		if r.Distance == 0 {
			seeds++
		}
	}
	if seeds == 0 {
		return 0
	}
	return float64(len(results)) / float64(seeds)
}
