package model

// Provenance records how a candidate entered the candidate set
type Provenance string

const (
	ProvenanceVector         Provenance = "vector"
	ProvenanceTargetedLookup Provenance = "targeted_lookup"
	ProvenanceGraphExpansion Provenance = "graph_expansion"
)

// Candidate represents a node retrieved for a query
type Candidate struct {
	NodeID       string     `json:"node_id"`
	Node         *Node      `json:"node"`
	VectorScore  *float64   `json:"vector_score,omitempty"` // Cosine similarity, nil if not from vector search
	VectorRank   int        `json:"vector_rank"`            // Position in vector results, -1 if none
	KeywordScore float64    `json:"keyword_score"`          // Query term overlap in [0,1]
	FinalScore   float64    `json:"final_score"`            // Combined score from ranking
	Provenance   Provenance `json:"provenance"`
	Distance     int        `json:"distance"` // Hops from the nearest seed, 0 for non graph candidates
}

// NewCandidate creates a candidate without vector score
func NewCandidate(node *Node, provenance Provenance) *Candidate {
	return &Candidate{
		NodeID:     node.ID,
		Node:       node,
		VectorRank: -1,
		Provenance: provenance,
	}
}

// HasVectorScore returns true if the candidate was scored by vector search
func (c *Candidate) HasVectorScore() bool {
	return c.VectorScore != nil
}

// AggregationStatus tells whether an aggregation produced an answer
type AggregationStatus string

const (
	AggregationStatusOK          AggregationStatus = "ok"
	AggregationStatusNoData      AggregationStatus = "no_data"
	AggregationStatusUnsupported AggregationStatus = "unsupported"
)

// ComparisonResult is the evaluated predicate of a COMPARISON query
type ComparisonResult struct {
	Left       *Node      `json:"left"`
	Right      *Node      `json:"right"`
	LeftValue  float64    `json:"left_value"`
	RightValue float64    `json:"right_value"`
	Comparator Comparator `json:"comparator"`
	Holds      bool       `json:"holds"`
	Difference float64    `json:"difference"`
}

// AggregationResult is a deterministic aggregation answer.
// Only the fields belonging to Type are set; Status NoData never carries a value.
type AggregationResult struct {
	Type       AggregationType   `json:"type"`
	Status     AggregationStatus `json:"status"`
	Attribute  string            `json:"attribute,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Exact      bool              `json:"exact,omitempty"` // Count comes from the store, not the candidate set
	Value      *float64          `json:"value,omitempty"`
	Node       *Node             `json:"node,omitempty"` // Owner of the extremal value
	Values     []string          `json:"values,omitempty"`
	Comparison *ComparisonResult `json:"comparison,omitempty"`
	Answer     string            `json:"answer,omitempty"` // Template text, empty for LIST/DISTINCT
	Reason     string            `json:"reason,omitempty"`
}

// HasAnswer returns true if the aggregation produced a value
func (a *AggregationResult) HasAnswer() bool {
	return a != nil && a.Status == AggregationStatusOK
}

// Retrieval strategies recorded in the metadata
const (
	StrategyVector         = "vector"
	StrategyExactCount     = "exact_count"
	StrategyTargetedLookup = "targeted_lookup"
	StrategyGraphExpansion = "graph_expansion"
	StrategySmartDirection = "smart_direction_fallback"
	StrategyRerank         = "hybrid_rerank"
	StrategyAggregation    = "aggregation"
)

// RetrievalMetadata describes what happened during a retrieval
type RetrievalMetadata struct {
	RequestID              string   `json:"request_id"`
	RetrievalLimit         int      `json:"retrieval_limit"`
	VectorCandidates       int      `json:"vector_candidates"`
	SeedCount              int      `json:"seed_count"`
	CandidatesBeforeGraph  int      `json:"candidates_before_traversal"`
	CandidatesAfterGraph   int      `json:"candidates_after_traversal"`
	TraversedNodes         int      `json:"traversed_nodes"`
	ExpansionRatio         float64  `json:"expansion_ratio"`
	OverlapCount           int      `json:"overlap_count"`
	GraphTraversalApplied  bool     `json:"graph_traversal_applied"`
	SmartDirectionFallback bool     `json:"smart_direction_fallback"`
	EntityNotFound         bool     `json:"entity_not_found"`
	RankingSkipped         bool     `json:"ranking_skipped"`
	DroppedEdges           int      `json:"dropped_edges"`
	Strategies             []string `json:"strategies"`
	CacheHit               bool     `json:"cache_hit"`
}

// AddStrategy records a strategy once
func (m *RetrievalMetadata) AddStrategy(strategy string) {
	for _, s := range m.Strategies {
		if s == strategy {
			return
		}
	}
	m.Strategies = append(m.Strategies, strategy)
}

// RetrievalResult is the result of one retrieval call
type RetrievalResult struct {
	Query       string             `json:"query"`
	Candidates  []*Candidate       `json:"candidates"`
	Intent      QueryIntent        `json:"intent"`
	Aggregation *AggregationResult `json:"aggregation,omitempty"`
	Metadata    RetrievalMetadata  `json:"metadata"`
}

// NodeIDs returns the candidate node ids in result order
func (r *RetrievalResult) NodeIDs() []string {
	ids := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.NodeID
	}
	return ids
}
