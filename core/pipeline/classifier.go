package pipeline

import (
	"regexp"
	"strings"

	"github.com/siherrmann/wellgraph/model"
)

// Rule maps a pattern on lower cased query text to an aggregation or relationship.
// Rules are evaluated in list order.
type Rule struct {
	Pattern      *regexp.Regexp
	Aggregation  model.AggregationType
	Relationship model.RelationshipType
	Weight       float64 // keyword match strength in [0,1]
	Requires     string  // entity key that must be present for the rule to apply
	Comparator   model.Comparator
}

func rule(pattern string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Weight: 1.0}
}

func aggregation(pattern string, t model.AggregationType) Rule {
	r := rule(pattern)
	r.Aggregation = t
	return r
}

func comparison(pattern string, c model.Comparator) Rule {
	r := aggregation(pattern, model.AggregationComparison)
	r.Requires = model.EntityOtherWellID
	r.Comparator = c
	return r
}

func relationship(pattern string, t model.RelationshipType, weight float64) Rule {
	r := rule(pattern)
	r.Relationship = t
	r.Weight = weight
	return r
}

// DefaultAggregationRules returns the aggregation rules in priority order.
// Numeric answers come before enumerations.
func DefaultAggregationRules() []Rule {
	return []Rule{
		aggregation(`\bhow many\b`, model.AggregationCount),
		aggregation(`\bcount of\b`, model.AggregationCount),
		aggregation(`\bnumber of\b`, model.AggregationCount),
		aggregation(`\bcount\b`, model.AggregationCount),
		aggregation(`\b(maximum|highest|largest|greatest|deepest)\b`, model.AggregationMax),
		aggregation(`\bmax\b`, model.AggregationMax),
		aggregation(`\b(minimum|lowest|smallest|shallowest)\b`, model.AggregationMin),
		aggregation(`\bmin\b`, model.AggregationMin),
		comparison(`\b(deeper|greater|higher|larger|more) than\b`, model.ComparatorGreater),
		comparison(`\b(shallower|less|lower|smaller) than\b`, model.ComparatorLess),
		comparison(`\b(compare|comparison|versus|vs)\b`, model.ComparatorCompare),
		aggregation(`\blist( all| every| the)?\b`, model.AggregationList),
		aggregation(`\bshow( me)? all\b`, model.AggregationList),
		aggregation(`\benumerate\b`, model.AggregationList),
		aggregation(`\b(unique|distinct)\b`, model.AggregationDistinct),
	}
}

// DefaultRelationshipRules returns the relationship rules, strong matches first
func DefaultRelationshipRules() []Rule {
	return []Rule{
		relationship(`\bcurves? (for|of|in|from|on) (the )?well\b`, model.RelationshipWellToCurves, 1.0),
		relationship(`\b(what|which) (log )?curves\b`, model.RelationshipWellToCurves, 1.0),
		relationship(`\bcurves? (were |was )?(measured|logged|recorded|run) (in|for|at)\b`, model.RelationshipWellToCurves, 1.0),
		relationship(`\b(which|what) well\b`, model.RelationshipCurveToWell, 1.0),
		relationship(`\bbelong(s|ing)? to\b`, model.RelationshipCurveToWell, 1.0),
		relationship(`\bmeasured in which\b`, model.RelationshipCurveToWell, 1.0),
		relationship(`\b(curves?|logs?)\b`, model.RelationshipWellToCurves, 0.6),
		relationship(`\bwhere (was|is|were)\b`, model.RelationshipCurveToWell, 0.6),
	}
}

// ClassifierConfig weights the two relationship confidence signals
type ClassifierConfig struct {
	KeywordWeight float64
	EntityWeight  float64
}

// DefaultClassifierConfig weights keyword and entity evidence equally
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{KeywordWeight: 0.5, EntityWeight: 0.5}
}

type keywordTarget struct {
	pattern *regexp.Regexp
	value   string
}

var targetKeywords = []keywordTarget{
	{regexp.MustCompile(`\b(curves?|logs?|mnemonics?)\b`), string(model.NodeTypeLogCurve)},
	{regexp.MustCompile(`\b(wells?|wellbores?|boreholes?)\b`), string(model.NodeTypeWellDocument)},
	{regexp.MustCompile(`\b(measurements?|readings?|samples?|discharge|streamflow)\b`), string(model.NodeTypeWaterMeasurement)},
	{regexp.MustCompile(`\b(sites?|stations?|gauges?)\b`), string(model.NodeTypeWaterSite)},
	{regexp.MustCompile(`\b(energy|production|generation|electricity)\b`), string(model.NodeTypeEnergyRecord)},
}

var pluralWellsPattern = regexp.MustCompile(`\b(wells|wellbores|boreholes)\b`)

var attributeKeywords = []keywordTarget{
	{regexp.MustCompile(`\b(total depth|depth|deepest|shallowest|deeper|shallower)\b`), model.AttrTotalDepth},
	{regexp.MustCompile(`\b(mean|average)\b`), model.AttrMeanValue},
	{regexp.MustCompile(`\b(operators?)\b`), model.AttrOperator},
	{regexp.MustCompile(`\bfields?\b`), model.AttrField},
	{regexp.MustCompile(`\b(mnemonics?)\b`), model.AttrMnemonic},
	{regexp.MustCompile(`\bunits?\b`), model.AttrUnit},
	{regexp.MustCompile(`\b(production|produced|generation)\b`), model.AttrProduction},
	{regexp.MustCompile(`\bregions?\b`), model.AttrRegion},
	{regexp.MustCompile(`\bsources?\b`), model.AttrSource},
	{regexp.MustCompile(`\byears?\b`), model.AttrYear},
	{regexp.MustCompile(`\bstates?\b`), model.AttrState},
	{regexp.MustCompile(`\bparameters?\b`), model.AttrParameter},
}

// Owning node type of an attribute, used when the text names no node type
var attributeOwner = map[string]model.NodeType{
	model.AttrTotalDepth: model.NodeTypeWellDocument,
	model.AttrOperator:   model.NodeTypeWellDocument,
	model.AttrField:      model.NodeTypeWellDocument,
	model.AttrMnemonic:   model.NodeTypeLogCurve,
	model.AttrMeanValue:  model.NodeTypeLogCurve,
	model.AttrProduction: model.NodeTypeEnergyRecord,
	model.AttrRegion:     model.NodeTypeEnergyRecord,
	model.AttrSource:     model.NodeTypeEnergyRecord,
	model.AttrYear:       model.NodeTypeEnergyRecord,
	model.AttrState:      model.NodeTypeWaterSite,
	model.AttrParameter:  model.NodeTypeWaterMeasurement,
}

// QueryClassifier maps query text and extracted entities to a query intent.
// Classification is a pure function of its input.
type QueryClassifier struct {
	AggregationRules  []Rule
	RelationshipRules []Rule
	Config            ClassifierConfig
}

// NewQueryClassifier creates a classifier with the default rules
func NewQueryClassifier(config ClassifierConfig) *QueryClassifier {
	return &QueryClassifier{
		AggregationRules:  DefaultAggregationRules(),
		RelationshipRules: DefaultRelationshipRules(),
		Config:            config,
	}
}

// Classify returns the intent of a query
func (c *QueryClassifier) Classify(text string, entities map[string]string) model.QueryIntent {
	lower := strings.ToLower(text)

	intent := model.QueryIntent{Entities: make(map[string]string, len(entities))}
	for k, v := range entities {
		intent.Entities[k] = v
	}

	for _, r := range c.AggregationRules {
		if !r.applies(lower, entities) {
			continue
		}
		intent.AggregationType = r.Aggregation
		intent.Comparator = r.Comparator
		break
	}
	intent.IsAggregation = intent.AggregationType != model.AggregationNone

	intent.RelationshipType, intent.Confidence = c.relationship(lower, entities)
	intent.IsRelationship = intent.RelationshipType != model.RelationshipNone

	intent.Attribute = firstKeyword(lower, attributeKeywords)
	intent.TargetType = targetType(lower, entities, intent.Attribute)

	return intent
}

// relationship scores both relationship types and returns the better one.
// confidence = KeywordWeight * strongest keyword match + EntityWeight * entity present.
func (c *QueryClassifier) relationship(lower string, entities map[string]string) (model.RelationshipType, float64) {
	candidates := []struct {
		rel    model.RelationshipType
		entity string
	}{
		{model.RelationshipWellToCurves, model.EntityWellID},
		{model.RelationshipCurveToWell, model.EntityCurveMnemonic},
	}

	best, bestConfidence := model.RelationshipNone, 0.0
	for _, candidate := range candidates {
		strength := 0.0
		for _, r := range c.RelationshipRules {
			if r.Relationship == candidate.rel && r.Weight > strength && r.applies(lower, entities) {
				strength = r.Weight
			}
		}

		entityPresent := 0.0
		if entities[candidate.entity] != "" {
			entityPresent = 1.0
		}
		if strength == 0 && entityPresent == 0 {
			continue
		}

		confidence := clamp(c.Config.KeywordWeight*strength + c.Config.EntityWeight*entityPresent)
		if confidence > bestConfidence {
			best, bestConfidence = candidate.rel, confidence
		}
	}

	return best, bestConfidence
}

func (r Rule) applies(lower string, entities map[string]string) bool {
	if r.Requires != "" && entities[r.Requires] == "" {
		return false
	}
	return r.Pattern.MatchString(lower)
}

// targetType returns the node type named earliest in the text.
// A named curve mnemonic makes the question about curves unless plural wells are
// named before any curve word, as in "how many wells have a GR curve".
func targetType(lower string, entities map[string]string, attribute string) model.NodeType {
	if entities[model.EntityCurveMnemonic] != "" {
		wells := pluralWellsPattern.FindStringIndex(lower)
		curves := targetKeywords[0].pattern.FindStringIndex(lower)
		if wells != nil && (curves == nil || wells[0] < curves[0]) {
			return model.NodeTypeWellDocument
		}
		return model.NodeTypeLogCurve
	}

	first, position := "", -1
	for _, k := range targetKeywords {
		loc := k.pattern.FindStringIndex(lower)
		if loc != nil && (position < 0 || loc[0] < position) {
			first, position = k.value, loc[0]
		}
	}
	if first != "" {
		return model.NodeType(first)
	}

	if owner, ok := attributeOwner[attribute]; ok {
		return owner
	}
	if entities[model.EntityWellID] != "" {
		return model.NodeTypeWellDocument
	}
	return ""
}

func firstKeyword(lower string, keywords []keywordTarget) string {
	for _, k := range keywords {
		if k.pattern.MatchString(lower) {
			return k.value
		}
	}
	return ""
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
