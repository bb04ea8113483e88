package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/wellgraph/core/graph"
	"github.com/siherrmann/wellgraph/core/pipeline"
	"github.com/siherrmann/wellgraph/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// TracerName is the instrumentation name of retrieval spans
const TracerName = "github.com/siherrmann/wellgraph/core/retrieval"

// VectorStore is the similarity search collaborator
type VectorStore interface {
	Search(ctx context.Context, embedding []float32, limit int, filter *model.SearchFilter) ([]model.SearchHit, error)
}

// DocumentCounter is the optional exact count collaborator
type DocumentCounter interface {
	CountDocuments(ctx context.Context, filter *model.SearchFilter) (int, error)
}

// Retriever answers a query with a retrieval result
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*model.RetrievalResult, error)
}

// Engine combines query analysis, vector search, graph traversal, reranking
// and aggregation into one retrieval call. It holds no mutable state between
// calls; the graph index is read-only.
type Engine struct {
	index      *graph.Index
	pipeline   *pipeline.Pipeline
	store      VectorStore
	counter    DocumentCounter
	reranker   *Reranker
	aggregator *Aggregator
	config     model.RetrievalConfig
	tracer     trace.Tracer
	log        *slog.Logger
}

// NewEngine creates a retrieval engine. If the store also implements
// DocumentCounter it is used for exact counts.
func NewEngine(index *graph.Index, p *pipeline.Pipeline, store VectorStore, config model.RetrievalConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if index == nil {
		index = graph.NewIndex(nil, nil, logger)
	}
	if p == nil {
		p = pipeline.NewPipeline(nil)
	}

	e := &Engine{
		index:      index,
		pipeline:   p,
		store:      store,
		reranker:   NewReranker(config.VectorWeight, config.KeywordWeight),
		aggregator: NewAggregator(),
		config:     config,
		tracer:     otel.Tracer(TracerName),
		log:        logger,
	}
	if counter, ok := store.(DocumentCounter); ok {
		e.counter = counter
	}
	return e
}

// SetCounter sets the exact count collaborator, nil disables exact counts
func (e *Engine) SetCounter(counter DocumentCounter) {
	e.counter = counter
}

// SetTracer replaces the global tracer
func (e *Engine) SetTracer(tracer trace.Tracer) {
	e.tracer = tracer
}

// Index returns the graph index of the engine
func (e *Engine) Index() *graph.Index {
	return e.index
}

// Config returns the retrieval configuration
func (e *Engine) Config() model.RetrievalConfig {
	return e.config
}

// Retrieve classifies the query, collects candidates from vector search and,
// for confident relationship queries, from graph traversal, and either answers
// it by aggregation or returns the reranked top candidates.
func (e *Engine) Retrieve(ctx context.Context, query string) (*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := e.tracer.Start(ctx, "wellgraph.retrieve")
	defer span.End()

	intent := e.pipeline.Analyze(query)
	span.SetAttributes(
		attribute.String("retrieval.aggregation_type", string(intent.AggregationType)),
		attribute.String("retrieval.relationship_type", string(intent.RelationshipType)),
		attribute.Float64("retrieval.confidence", intent.Confidence),
		attribute.Int("retrieval.entities", len(intent.Entities)),
	)

	result := &model.RetrievalResult{
		Query:  query,
		Intent: intent,
		Metadata: model.RetrievalMetadata{
			RequestID:    uuid.NewString(),
			DroppedEdges: e.index.Stats().DroppedEdges,
			Strategies:   []string{},
		},
	}
	m := &result.Metadata

	m.RetrievalLimit = e.config.StandardLimit
	if intent.IsAggregation {
		m.RetrievalLimit = e.config.AggregationLimit
	}
	filter := searchFilter(intent)

	e.log.Debug("Classified query",
		slog.String("request_id", m.RequestID),
		slog.String("aggregation_type", string(intent.AggregationType)),
		slog.String("relationship_type", string(intent.RelationshipType)),
		slog.Float64("confidence", intent.Confidence),
		slog.Any("entities", intent.Entities),
	)

	// Wells owning a named curve are counted on the graph, a store count cannot join them
	if mnemonic, ok := intent.Entity(model.EntityCurveMnemonic); ok &&
		intent.AggregationType == model.AggregationCount && intent.TargetType == model.NodeTypeWellDocument {
		wells := wellsWithCurve(e.index, mnemonic)
		result.Aggregation = e.aggregator.ExactCount(intent, len(wells))
		result.Candidates = make([]*model.Candidate, 0, len(wells))
		for _, well := range wells {
			result.Candidates = append(result.Candidates, model.NewCandidate(well, model.ProvenanceTargetedLookup))
		}
		result.Candidates = truncate(result.Candidates, e.config.AggregationLimit)
		m.SeedCount = len(wells)
		m.AddStrategy(model.StrategyTargetedLookup)
		m.AddStrategy(model.StrategyAggregation)
		m.RankingSkipped = true
		e.done(span, result)
		return result, nil
	}

	// Exact counts skip bulk retrieval entirely
	if intent.AggregationType == model.AggregationCount && e.counter != nil {
		count, err := e.counter.CountDocuments(ctx, filter)
		if err != nil {
			return nil, e.fail(span, m.RequestID, newRetrievalError(StageCount, err))
		}
		result.Aggregation = e.aggregator.ExactCount(intent, count)
		result.Candidates = []*model.Candidate{}
		m.AddStrategy(model.StrategyExactCount)
		m.AddStrategy(model.StrategyAggregation)
		m.RankingSkipped = true
		e.done(span, result)
		return result, nil
	}

	useGraph := intent.IsRelationship && intent.Confidence > e.config.RelationshipThreshold

	var hits []model.SearchHit
	var outcome *graphOutcome

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = e.vectorSearch(gctx, query, m.RetrievalLimit, filter)
		return err
	})
	if useGraph {
		g.Go(func() error {
			var err error
			outcome, err = expandRelationship(e.index, intent, e.config.MaxHops, e.config.FallbackHops)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.fail(span, m.RequestID, err)
	}
	m.AddStrategy(model.StrategyVector)

	set := newCandidateSet(len(hits))

	if outcome != nil {
		for _, seed := range outcome.seeds {
			set.add(model.NewCandidate(seed, model.ProvenanceTargetedLookup))
		}
		m.SeedCount = len(outcome.seeds)
		m.EntityNotFound = outcome.entityNotFound
		if len(outcome.seeds) > 0 {
			m.AddStrategy(model.StrategyTargetedLookup)
		}
	}
	if intent.AggregationType == model.AggregationComparison {
		for _, well := range lookupWells(e.index, intent) {
			set.add(model.NewCandidate(well, model.ProvenanceTargetedLookup))
			m.AddStrategy(model.StrategyTargetedLookup)
		}
	}

	for i, hit := range hits {
		node := e.resolveHit(hit)
		if node == nil {
			continue
		}
		score := clamp01(hit.Score)
		c := model.NewCandidate(node, model.ProvenanceVector)
		c.VectorScore = &score
		c.VectorRank = i
		set.add(c)
	}
	m.VectorCandidates = len(hits)
	m.CandidatesBeforeGraph = set.len()

	if outcome != nil && len(outcome.expanded) > 0 {
		m.GraphTraversalApplied = true
		m.AddStrategy(model.StrategyGraphExpansion)
		if outcome.smartDirection {
			m.SmartDirectionFallback = true
			m.AddStrategy(model.StrategySmartDirection)
		}
		m.TraversedNodes = len(outcome.expanded)
		m.ExpansionRatio = graph.ExpansionRatio(outcome.expanded)

		for _, r := range outcome.expanded {
			if r.Distance == 0 {
				continue
			}
			c := model.NewCandidate(r.Node, model.ProvenanceGraphExpansion)
			c.Distance = r.Distance
			if !set.add(c) {
				m.OverlapCount++
			}
		}
	}
	m.CandidatesAfterGraph = set.len()

	candidates := set.candidates()
	switch {
	case intent.AggregationType.IsComputed():
		// Ranking is meaningless for an exhaustive computation
		result.Aggregation = e.aggregator.Aggregate(intent, candidates)
		result.Candidates = candidates
		m.AddStrategy(model.StrategyAggregation)
		m.RankingSkipped = true
	case intent.AggregationType.IsEnumeration():
		result.Aggregation = e.aggregator.Aggregate(intent, candidates)
		result.Candidates = truncate(candidates, e.config.AggregationLimit)
		m.AddStrategy(model.StrategyAggregation)
		m.RankingSkipped = true
	default:
		if intent.IsAggregation {
			result.Aggregation = e.aggregator.Aggregate(intent, candidates)
		}
		result.Candidates = truncate(e.reranker.Rerank(query, candidates), e.config.TopK)
		m.AddStrategy(model.StrategyRerank)
	}

	e.done(span, result)
	return result, nil
}

func (e *Engine) vectorSearch(ctx context.Context, query string, limit int, filter *model.SearchFilter) ([]model.SearchHit, error) {
	if e.pipeline.Embedder == nil {
		return nil, newRetrievalError(StageEmbed, nil)
	}
	if e.store == nil {
		return nil, newRetrievalError(StageVectorSearch, nil)
	}

	embedding, err := e.pipeline.Embedder(ctx, query)
	if err != nil {
		return nil, newRetrievalError(StageEmbed, err)
	}

	hits, err := e.store.Search(ctx, embedding, limit, filter)
	if err != nil {
		return nil, newRetrievalError(StageVectorSearch, err)
	}
	return hits, nil
}

// resolveHit prefers the indexed node, hits outside the graph are decoded from the store
func (e *Engine) resolveHit(hit model.SearchHit) *model.Node {
	if node, err := e.index.GetNode(hit.ID); err == nil {
		return node
	}

	node, err := model.NewNode(hit.ID, hit.Type, hit.Attributes)
	if err != nil {
		e.log.Warn("Skipping undecodable search hit", slog.String("id", hit.ID), slog.String("error", err.Error()))
		return nil
	}
	return node
}

func (e *Engine) fail(span trace.Span, requestID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.log.Error("Retrieval failed", slog.String("request_id", requestID), slog.String("error", err.Error()))
	return err
}

func (e *Engine) done(span trace.Span, result *model.RetrievalResult) {
	m := result.Metadata
	span.SetAttributes(
		attribute.Int("retrieval.candidates", len(result.Candidates)),
		attribute.Bool("retrieval.graph_traversal", m.GraphTraversalApplied),
		attribute.StringSlice("retrieval.strategies", m.Strategies),
	)
	span.SetStatus(codes.Ok, "")

	e.log.Info("Retrieved candidates",
		slog.String("request_id", m.RequestID),
		slog.Int("candidates", len(result.Candidates)),
		slog.Int("before_traversal", m.CandidatesBeforeGraph),
		slog.Int("after_traversal", m.CandidatesAfterGraph),
		slog.Float64("expansion_ratio", m.ExpansionRatio),
		slog.Any("strategies", m.Strategies),
	)
}

// searchFilter derives the store filter from the extracted entities.
// A single well narrows the search to that well and its curves, a named
// mnemonic narrows the curves to that mnemonic.
func searchFilter(intent model.QueryIntent) *model.SearchFilter {
	filter := &model.SearchFilter{}

	wellID, hasWell := intent.Entity(model.EntityWellID)
	_, hasOther := intent.Entity(model.EntityOtherWellID)
	mnemonic, hasMnemonic := intent.Entity(model.EntityCurveMnemonic)
	singleWell := hasWell && !hasOther &&
		(intent.TargetType == "" || intent.TargetType.Domain() == model.DomainSubsurface)

	switch {
	case intent.IsAggregation && intent.TargetType != "":
		filter.NodeTypes = []model.NodeType{intent.TargetType}
	case singleWell:
		filter.NodeTypes = []model.NodeType{model.NodeTypeWellDocument, model.NodeTypeLogCurve}
	case !hasWell && hasMnemonic:
		filter.Domain = model.DomainSubsurface
	}
	if singleWell {
		filter.WellID = wellID
	}
	if hasMnemonic {
		filter.Mnemonic = mnemonic
	}

	if filter.IsEmpty() {
		return nil
	}
	return filter
}

func truncate(candidates []*model.Candidate, limit int) []*model.Candidate {
	if limit > 0 && len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
