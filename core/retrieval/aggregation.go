package retrieval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siherrmann/wellgraph/core/pipeline"
	"github.com/siherrmann/wellgraph/model"
)

// Default attributes of MAX and MIN per node type
var extremumAttributes = map[model.AggregationType]map[model.NodeType]string{
	model.AggregationMax: {
		model.NodeTypeWellDocument:     model.AttrTotalDepth,
		model.NodeTypeLogCurve:         model.AttrMaxValue,
		model.NodeTypeEnergyRecord:     model.AttrProduction,
		model.NodeTypeWaterMeasurement: model.AttrValue,
	},
	model.AggregationMin: {
		model.NodeTypeWellDocument:     model.AttrTotalDepth,
		model.NodeTypeLogCurve:         model.AttrMinValue,
		model.NodeTypeEnergyRecord:     model.AttrProduction,
		model.NodeTypeWaterMeasurement: model.AttrValue,
	},
}

// Default attributes of LIST and DISTINCT per node type
var enumerationAttributes = map[model.NodeType]string{
	model.NodeTypeWellDocument:     model.AttrWellName,
	model.NodeTypeLogCurve:         model.AttrMnemonic,
	model.NodeTypeWaterSite:        model.AttrSiteName,
	model.NodeTypeEnergyRecord:     model.AttrSource,
	model.NodeTypeWaterMeasurement: model.AttrParameter,
}

var nouns = map[model.NodeType][2]string{
	model.NodeTypeWellDocument:     {"well", "wells"},
	model.NodeTypeLogCurve:         {"curve", "curves"},
	model.NodeTypeEnergyRecord:     {"energy record", "energy records"},
	model.NodeTypeWaterSite:        {"water site", "water sites"},
	model.NodeTypeWaterMeasurement: {"water measurement", "water measurements"},
}

// Aggregator computes aggregation answers without ranking or generation
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// ExactCount wraps a count returned by the store. Zero is a valid exact count.
func (a *Aggregator) ExactCount(intent model.QueryIntent, count int) *model.AggregationResult {
	return &model.AggregationResult{
		Type:   model.AggregationCount,
		Status: model.AggregationStatusOK,
		Count:  &count,
		Exact:  true,
		Answer: fmt.Sprintf("There %s %d %s.", verb(count), count, noun(intent.TargetType, count)),
	}
}

// Aggregate dispatches on the aggregation type of the intent
func (a *Aggregator) Aggregate(intent model.QueryIntent, candidates []*model.Candidate) *model.AggregationResult {
	switch intent.AggregationType {
	case model.AggregationCount:
		return a.count(intent, candidates)
	case model.AggregationMax, model.AggregationMin:
		return a.extremum(intent, candidates)
	case model.AggregationComparison:
		return a.compare(intent, candidates)
	case model.AggregationList, model.AggregationDistinct:
		return a.enumerate(intent, candidates)
	default:
		return &model.AggregationResult{
			Type:   intent.AggregationType,
			Status: model.AggregationStatusUnsupported,
			Reason: fmt.Sprintf("cannot aggregate %q", intent.AggregationType),
		}
	}
}

func (a *Aggregator) count(intent model.QueryIntent, candidates []*model.Candidate) *model.AggregationResult {
	selected := selectNodes(intent, candidates)
	if len(selected) == 0 {
		return noData(intent.AggregationType, "", "no candidates to count")
	}

	count := len(selected)
	return &model.AggregationResult{
		Type:   model.AggregationCount,
		Status: model.AggregationStatusOK,
		Count:  &count,
		Answer: fmt.Sprintf("There %s %d %s.", verb(count), count, noun(intent.TargetType, count)),
	}
}

func (a *Aggregator) extremum(intent model.QueryIntent, candidates []*model.Candidate) *model.AggregationResult {
	selected := selectNodes(intent, candidates)
	if len(selected) == 0 {
		return noData(intent.AggregationType, intent.Attribute, "no candidates to aggregate")
	}

	attribute := intent.Attribute
	if attribute == "" {
		attribute = extremumAttributes[intent.AggregationType][selected[0].Type]
	}
	if attribute == "" {
		return noData(intent.AggregationType, "", "no numeric attribute for "+string(selected[0].Type))
	}

	var best *model.Node
	var bestValue float64
	for _, node := range selected {
		value, ok := node.Numeric(attribute)
		if !ok {
			continue
		}
		if best == nil ||
			(intent.AggregationType == model.AggregationMax && value > bestValue) ||
			(intent.AggregationType == model.AggregationMin && value < bestValue) {
			best, bestValue = node, value
		}
	}
	if best == nil {
		return noData(intent.AggregationType, attribute, "no candidate has a numeric "+attribute)
	}

	word := "maximum"
	if intent.AggregationType == model.AggregationMin {
		word = "minimum"
	}

	return &model.AggregationResult{
		Type:      intent.AggregationType,
		Status:    model.AggregationStatusOK,
		Attribute: attribute,
		Value:     &bestValue,
		Node:      best,
		Answer:    fmt.Sprintf("The %s %s is %s (%s).", word, attribute, formatNumber(bestValue), best.Label()),
	}
}

func (a *Aggregator) compare(intent model.QueryIntent, candidates []*model.Candidate) *model.AggregationResult {
	leftID, okLeft := intent.Entity(model.EntityWellID)
	rightID, okRight := intent.Entity(model.EntityOtherWellID)
	if !okLeft || !okRight {
		return noData(model.AggregationComparison, intent.Attribute, "comparison needs two wells")
	}

	attribute := intent.Attribute
	if attribute == "" {
		attribute = model.AttrTotalDepth
	}

	left, right := findWell(candidates, leftID), findWell(candidates, rightID)
	if left == nil || right == nil {
		return noData(model.AggregationComparison, attribute, "well not found among candidates")
	}

	leftValue, okLeft := left.Numeric(attribute)
	rightValue, okRight := right.Numeric(attribute)
	if !okLeft || !okRight {
		return noData(model.AggregationComparison, attribute, "missing numeric "+attribute)
	}

	comparator := intent.Comparator
	if comparator == model.ComparatorNone {
		comparator = model.ComparatorCompare
	}

	comparison := &model.ComparisonResult{
		Left:       left,
		Right:      right,
		LeftValue:  leftValue,
		RightValue: rightValue,
		Comparator: comparator,
		Difference: leftValue - rightValue,
	}

	var answer string
	switch comparator {
	case model.ComparatorGreater:
		comparison.Holds = leftValue > rightValue
		answer = fmt.Sprintf("%s (%s %s) is %sgreater than %s (%s %s).",
			left.Label(), attribute, formatNumber(leftValue), negation(comparison.Holds),
			right.Label(), attribute, formatNumber(rightValue))
	case model.ComparatorLess:
		comparison.Holds = leftValue < rightValue
		answer = fmt.Sprintf("%s (%s %s) is %sless than %s (%s %s).",
			left.Label(), attribute, formatNumber(leftValue), negation(comparison.Holds),
			right.Label(), attribute, formatNumber(rightValue))
	default:
		comparison.Holds = true
		answer = fmt.Sprintf("%s has %s %s, %s has %s %s, a difference of %s.",
			left.Label(), attribute, formatNumber(leftValue),
			right.Label(), attribute, formatNumber(rightValue), formatNumber(comparison.Difference))
	}

	return &model.AggregationResult{
		Type:       model.AggregationComparison,
		Status:     model.AggregationStatusOK,
		Attribute:  attribute,
		Comparison: comparison,
		Answer:     answer,
	}
}

// enumerate collects attribute values for downstream phrasing, no answer text is built
func (a *Aggregator) enumerate(intent model.QueryIntent, candidates []*model.Candidate) *model.AggregationResult {
	selected := selectNodes(intent, candidates)
	if len(selected) == 0 {
		return noData(intent.AggregationType, intent.Attribute, "no candidates to enumerate")
	}

	attribute := intent.Attribute
	if attribute == "" {
		attribute = enumerationAttributes[selected[0].Type]
	}

	var values []string
	seen := map[string]bool{}
	for _, node := range selected {
		value, ok := node.String(attribute)
		if !ok {
			continue
		}
		if intent.AggregationType == model.AggregationDistinct {
			if seen[value] {
				continue
			}
			seen[value] = true
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return noData(intent.AggregationType, attribute, "no candidate has "+attribute)
	}

	return &model.AggregationResult{
		Type:      intent.AggregationType,
		Status:    model.AggregationStatusOK,
		Attribute: attribute,
		Values:    values,
	}
}

// selectNodes returns the candidate nodes an aggregation runs on, in candidate order.
// Candidates are restricted to the target type and, for curves, to the named
// mnemonic and well.
func selectNodes(intent model.QueryIntent, candidates []*model.Candidate) []*model.Node {
	mnemonic, _ := intent.Entity(model.EntityCurveMnemonic)
	wellID, _ := intent.Entity(model.EntityWellID)

	var nodes []*model.Node
	for _, c := range candidates {
		node := c.Node
		if node == nil {
			continue
		}
		if intent.TargetType != "" && node.Type != intent.TargetType {
			continue
		}
		if node.Type == model.NodeTypeLogCurve {
			if v, _ := node.String(model.AttrMnemonic); mnemonic != "" && !strings.EqualFold(v, mnemonic) {
				continue
			}
			if v, _ := node.String(model.AttrWellID); wellID != "" && v != wellID {
				continue
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func findWell(candidates []*model.Candidate, wellID string) *model.Node {
	for _, c := range candidates {
		if c.Node == nil || c.Node.Type != model.NodeTypeWellDocument {
			continue
		}
		if v, _ := c.Node.String(model.AttrWellID); v == wellID || c.Node.ID == pipeline.WellNodeID(wellID) {
			return c.Node
		}
	}
	return nil
}

func noData(t model.AggregationType, attribute string, reason string) *model.AggregationResult {
	return &model.AggregationResult{
		Type:      t,
		Status:    model.AggregationStatusNoData,
		Attribute: attribute,
		Reason:    reason,
	}
}

func noun(t model.NodeType, count int) string {
	forms, ok := nouns[t]
	if !ok {
		forms = [2]string{"matching record", "matching records"}
	}
	if count == 1 {
		return forms[0]
	}
	return forms[1]
}

func verb(count int) string {
	if count == 1 {
		return "is"
	}
	return "are"
}

func negation(holds bool) string {
	if holds {
		return ""
	}
	return "not "
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
