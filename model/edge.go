package model

// EdgeType represents the type of relationship between nodes
type EdgeType string

const (
	// EdgeTypeDescribes points from a log curve to the well it was measured in
	EdgeTypeDescribes EdgeType = "describes"
	// EdgeTypeReportsOn points from a record or measurement to the entity it reports on
	EdgeTypeReportsOn EdgeType = "reports_on"
)

// Edge represents a directed relationship between two nodes
type Edge struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Type     EdgeType `json:"type"`
}

// Direction selects which adjacency a traversal follows
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// IsValid returns true if the direction is one of the known directions
func (d Direction) IsValid() bool {
	return d == DirectionOutgoing || d == DirectionIncoming || d == DirectionBoth
}
