package retrieval

import (
	"strings"

	"github.com/siherrmann/wellgraph/core/graph"
	"github.com/siherrmann/wellgraph/core/pipeline"
	"github.com/siherrmann/wellgraph/model"
)

// graphOutcome is the result of the relationship driven graph path
type graphOutcome struct {
	seeds          []*model.Node
	expanded       []*graph.TraversalResult
	smartDirection bool
	entityNotFound bool
}

// relationshipPlan is the traversal a relationship type asks for
type relationshipPlan struct {
	direction model.Direction
	expected  model.NodeType
}

var relationshipPlans = map[model.RelationshipType]relationshipPlan{
	model.RelationshipWellToCurves: {direction: model.DirectionIncoming, expected: model.NodeTypeLogCurve},
	model.RelationshipCurveToWell:  {direction: model.DirectionOutgoing, expected: model.NodeTypeWellDocument},
}

// targetedLookup resolves the seed nodes of a relationship intent by id,
// without vector search
func targetedLookup(index *graph.Index, intent model.QueryIntent) []*model.Node {
	wellID, hasWell := intent.Entity(model.EntityWellID)
	mnemonic, hasMnemonic := intent.Entity(model.EntityCurveMnemonic)

	switch intent.RelationshipType {
	case model.RelationshipWellToCurves:
		if !hasWell {
			return nil
		}
		if node, err := index.GetNode(pipeline.WellNodeID(wellID)); err == nil {
			return []*model.Node{node}
		}
	case model.RelationshipCurveToWell:
		if !hasMnemonic {
			return nil
		}
		if hasWell {
			if node, err := index.GetNode(pipeline.CurveNodeID(wellID, mnemonic)); err == nil {
				return []*model.Node{node}
			}
			return nil
		}
		// Without a well every curve with the mnemonic is a seed
		var seeds []*model.Node
		for _, node := range index.NodesOfType(model.NodeTypeLogCurve) {
			if v, _ := node.String(model.AttrMnemonic); v == mnemonic {
				seeds = append(seeds, node)
			}
		}
		return seeds
	}
	return nil
}

// lookupWells resolves both wells of a comparison
func lookupWells(index *graph.Index, intent model.QueryIntent) []*model.Node {
	var nodes []*model.Node
	for _, key := range []string{model.EntityWellID, model.EntityOtherWellID} {
		wellID, ok := intent.Entity(key)
		if !ok {
			continue
		}
		if node, err := index.GetNode(pipeline.WellNodeID(wellID)); err == nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// expandRelationship runs the targeted lookup and expands the seeds in the
// direction of the relationship. If that finds no node of the expected type
// the expansion is repeated in both directions with fallbackHops.
func expandRelationship(index *graph.Index, intent model.QueryIntent, maxHops int, fallbackHops int) (*graphOutcome, error) {
	outcome := &graphOutcome{}

	plan, ok := relationshipPlans[intent.RelationshipType]
	if !ok {
		return outcome, nil
	}

	outcome.seeds = targetedLookup(index, intent)
	if len(outcome.seeds) == 0 {
		outcome.entityNotFound = true
		return outcome, nil
	}

	seedIDs := make([]string, len(outcome.seeds))
	for i, s := range outcome.seeds {
		seedIDs[i] = s.ID
	}

	expanded, err := index.Expand(seedIDs, plan.direction, maxHops)
	if err != nil {
		return nil, err
	}

	if !discovered(expanded, plan.expected) {
		expanded, err = index.Expand(seedIDs, model.DirectionBoth, fallbackHops)
		if err != nil {
			return nil, err
		}
		outcome.smartDirection = true
	}

	outcome.expanded = expanded
	return outcome, nil
}

// discovered reports whether a traversal reached a node of the expected type
func discovered(results []*graph.TraversalResult, expected model.NodeType) bool {
	for _, r := range results {
		if r.Distance > 0 && r.Node.Type == expected {
			return true
		}
	}
	return false
}

// wellsWithCurve returns the distinct wells owning a curve with the mnemonic,
// in index order of the curves
func wellsWithCurve(index *graph.Index, mnemonic string) []*model.Node {
	var wells []*model.Node
	seen := map[string]bool{}
	for _, curve := range index.NodesOfType(model.NodeTypeLogCurve) {
		if v, _ := curve.String(model.AttrMnemonic); !strings.EqualFold(v, mnemonic) {
			continue
		}
		well, ok, err := index.GetWellForCurve(curve.ID)
		if err != nil || !ok || seen[well.ID] {
			continue
		}
		seen[well.ID] = true
		wells = append(wells, well)
	}
	return wells
}

// candidateSet merges candidates from several sources, deduplicated by node id.
// The first entry of a node is kept; it gains a vector score from a later
// entry that has one.
type candidateSet struct {
	order []*model.Candidate
	byID  map[string]*model.Candidate
}

func newCandidateSet(capacity int) *candidateSet {
	return &candidateSet{
		order: make([]*model.Candidate, 0, capacity),
		byID:  make(map[string]*model.Candidate, capacity),
	}
}

// add returns false if the node was already part of the set
func (s *candidateSet) add(c *model.Candidate) bool {
	existing, ok := s.byID[c.NodeID]
	if !ok {
		s.byID[c.NodeID] = c
		s.order = append(s.order, c)
		return true
	}
	if existing.VectorScore == nil && c.VectorScore != nil {
		existing.VectorScore = c.VectorScore
		existing.VectorRank = c.VectorRank
	}
	return false
}

func (s *candidateSet) len() int {
	return len(s.order)
}

func (s *candidateSet) candidates() []*model.Candidate {
	return s.order
}
