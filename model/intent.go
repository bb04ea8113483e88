package model

// AggregationType is the category of a computed-answer query
type AggregationType string

const (
	AggregationNone       AggregationType = ""
	AggregationCount      AggregationType = "COUNT"
	AggregationList       AggregationType = "LIST"
	AggregationDistinct   AggregationType = "DISTINCT"
	AggregationMax        AggregationType = "MAX"
	AggregationMin        AggregationType = "MIN"
	AggregationComparison AggregationType = "COMPARISON"
)

// IsComputed returns true for aggregation types answered without ranking or generation
func (a AggregationType) IsComputed() bool {
	switch a {
	case AggregationCount, AggregationMax, AggregationMin, AggregationComparison:
		return true
	}
	return false
}

// IsEnumeration returns true for aggregation types whose values are phrased downstream
func (a AggregationType) IsEnumeration() bool {
	return a == AggregationList || a == AggregationDistinct
}

// RelationshipType is the kind of entity relationship a query asks about
type RelationshipType string

const (
	RelationshipNone         RelationshipType = ""
	RelationshipWellToCurves RelationshipType = "well_to_curves"
	RelationshipCurveToWell  RelationshipType = "curve_to_well"
)

// Entity keys produced by the entity extractor
const (
	EntityWellID        = "well_id"
	EntityOtherWellID   = "other_well_id"
	EntityCurveMnemonic = "curve_mnemonic"
)

// Comparator is the relational predicate of a comparison query
type Comparator string

const (
	ComparatorNone    Comparator = ""
	ComparatorGreater Comparator = ">"
	ComparatorLess    Comparator = "<"
	ComparatorCompare Comparator = "compare"
)

// QueryIntent is the classification of a single query text
type QueryIntent struct {
	IsAggregation    bool              `json:"is_aggregation"`
	AggregationType  AggregationType   `json:"aggregation_type,omitempty"`
	IsRelationship   bool              `json:"is_relationship"`
	RelationshipType RelationshipType  `json:"relationship_type,omitempty"`
	Entities         map[string]string `json:"entities,omitempty"`
	Confidence       float64           `json:"confidence"`

	// Derived targets of the question
	TargetType NodeType   `json:"target_type,omitempty"` // node type the question is about
	Attribute  string     `json:"attribute,omitempty"`   // attribute an aggregation operates on
	Comparator Comparator `json:"comparator,omitempty"`
}

// Entity returns the extracted entity for the given key
func (q *QueryIntent) Entity(key string) (string, bool) {
	v, ok := q.Entities[key]
	return v, ok && v != ""
}
