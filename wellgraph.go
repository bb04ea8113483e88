package wellgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/siherrmann/wellgraph/core/graph"
	"github.com/siherrmann/wellgraph/core/pipeline"
	"github.com/siherrmann/wellgraph/core/retrieval"
	"github.com/siherrmann/wellgraph/database"
	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	loadSql "github.com/siherrmann/wellgraph/sql"
)

// WellGraph wires the graph index, the query pipeline and the vector store
// into one retrieval entry point. The graph can be reloaded while queries run.
type WellGraph struct {
	DB    *helper.Database // nil when built from a snapshot
	Nodes *database.NodesDBHandler
	Edges *database.EdgesDBHandler

	store    retrieval.VectorStore
	embedder pipeline.EmbedFunc
	config   model.RetrievalConfig
	cache    retrieval.Cache

	engine atomic.Pointer[retrieval.Engine]
	mu     sync.Mutex // serializes engine rebuilds

	// Logging
	log *slog.Logger
}

// NewWellGraph connects to PostgreSQL, creates the node and edge tables and
// builds the graph index from the stored rows. An embedder has to be set with
// SetEmbedder or UseDefaultEmbedder before queries can use vector search.
func NewWellGraph(dbConfig *helper.DatabaseConfiguration, embeddingDim int, config model.RetrievalConfig) (*WellGraph, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)

	db, err := helper.NewDatabase("wellgraph", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}

	err = loadSql.Init(db)
	if err != nil {
		db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	nodes, err := database.NewNodesDBHandler(db, embeddingDim, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create nodes handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create edges handler", err)
	}

	w := &WellGraph{
		DB:     db,
		Nodes:  nodes,
		Edges:  edges,
		store:  nodes,
		config: config,
		log:    logger,
	}

	if err := w.ReloadGraph(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// NewFromSnapshot creates a WellGraph over an in-memory snapshot and an
// external vector store. The store may also implement retrieval.DocumentCounter.
func NewFromSnapshot(snapshot *model.Snapshot, embedder pipeline.EmbedFunc, store retrieval.VectorStore, config model.RetrievalConfig, logger *slog.Logger) (*WellGraph, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stdout, slog.LevelInfo)
	}

	w := &WellGraph{
		store:    store,
		embedder: embedder,
		config:   config,
		log:      logger,
	}
	if err := w.ReloadFromSnapshot(snapshot); err != nil {
		return nil, err
	}

	return w, nil
}

// Close closes the database connection
func (w *WellGraph) Close() error {
	if w.DB != nil && w.DB.Instance != nil {
		return w.DB.Close()
	}
	return nil
}

// SetEmbedder sets the query embedding function
func (w *WellGraph) SetEmbedder(embedder pipeline.EmbedFunc) {
	w.mu.Lock()
	w.embedder = embedder
	w.mu.Unlock()

	w.rebuild(w.Index())
}

// UseDefaultEmbedder sets up the default all-MiniLM-L6-v2 embedder (384 dimensions)
func (w *WellGraph) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	w.SetEmbedder(embedder)
	return nil
}

// SetCache enables result caching, nil disables it
func (w *WellGraph) SetCache(cache retrieval.Cache) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = cache
}

// Engine returns the current retrieval engine
func (w *WellGraph) Engine() *retrieval.Engine {
	return w.engine.Load()
}

// Index returns the current graph index
func (w *WellGraph) Index() *graph.Index {
	if e := w.engine.Load(); e != nil {
		return e.Index()
	}
	return nil
}

// Retrieve answers a query against the current graph
func (w *WellGraph) Retrieve(ctx context.Context, query string) (*model.RetrievalResult, error) {
	engine := w.engine.Load()
	if engine == nil {
		return nil, helper.NewError("retrieve", fmt.Errorf("retrieval engine not initialized"))
	}

	w.mu.Lock()
	cache := w.cache
	w.mu.Unlock()

	if cache == nil {
		return engine.Retrieve(ctx, query)
	}
	return retrieval.NewCachedRetriever(engine, cache, w.config.CacheTTL, w.log).Retrieve(ctx, query)
}

// ReloadGraph rebuilds the graph index from the database and swaps it in.
// Running queries finish on the previous index.
func (w *WellGraph) ReloadGraph(ctx context.Context) error {
	if w.Nodes == nil || w.Edges == nil {
		return helper.NewError("reload graph", fmt.Errorf("no database configured"))
	}

	snapshot, err := database.SelectSnapshot(w.Nodes, w.Edges)
	if err != nil {
		return helper.NewError("reload graph", err)
	}

	if err := w.ReloadFromSnapshot(snapshot); err != nil {
		return err
	}

	w.flushCache(ctx)
	return nil
}

// ReloadFromSnapshot rebuilds the graph index from a snapshot and swaps it in
func (w *WellGraph) ReloadFromSnapshot(snapshot *model.Snapshot) error {
	if snapshot == nil {
		return helper.NewError("reload graph", fmt.Errorf("snapshot is nil"))
	}

	w.rebuild(graph.NewIndexFromSnapshot(snapshot, w.log))
	return nil
}

// InsertSnapshot embeds and stores the nodes and edges of a snapshot and
// reloads the graph. Nodes are embedded from their text rendering.
func (w *WellGraph) InsertSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if w.Nodes == nil || w.Edges == nil {
		return helper.NewError("insert snapshot", fmt.Errorf("no database configured"))
	}

	w.mu.Lock()
	embedder := w.embedder
	w.mu.Unlock()
	if embedder == nil {
		return helper.NewError("insert snapshot", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	embeddings := make(map[string][]float32, len(snapshot.Nodes))
	for _, node := range snapshot.Nodes {
		embedding, err := embedder(ctx, node.Text())
		if err != nil {
			return helper.NewError("embed node "+node.ID, err)
		}
		embeddings[node.ID] = embedding
	}

	if err := database.InsertSnapshot(w.Nodes, w.Edges, snapshot, embeddings); err != nil {
		return helper.NewError("insert snapshot", err)
	}

	w.log.Info("Inserted snapshot", slog.Int("nodes", len(snapshot.Nodes)), slog.Int("edges", len(snapshot.Edges)))

	return w.ReloadGraph(ctx)
}

// rebuild creates a new engine over the index with the current collaborators
func (w *WellGraph) rebuild(index *graph.Index) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := pipeline.NewPipeline(w.embedder)
	if mnemonics := knownMnemonics(index); len(mnemonics) > 0 {
		p.SetEntityExtractor(pipeline.NewEntityExtractor(mnemonics...).Extract)
	}

	w.engine.Store(retrieval.NewEngine(index, p, w.store, w.config, w.log))
}

// flushCache drops cached results of the previous graph if the cache supports it
func (w *WellGraph) flushCache(ctx context.Context) {
	w.mu.Lock()
	cache := w.cache
	w.mu.Unlock()

	flusher, ok := cache.(interface {
		Flush(ctx context.Context, prefix string) (int, error)
	})
	if !ok {
		return
	}

	removed, err := flusher.Flush(ctx, retrieval.CacheKeyPrefix)
	if err != nil {
		w.log.Warn("Error flushing retrieval cache", slog.String("error", err.Error()))
		return
	}
	w.log.Info("Flushed retrieval cache", slog.Int("removed", removed))
}

// knownMnemonics returns the distinct curve mnemonics of the index
func knownMnemonics(index *graph.Index) []string {
	if index == nil {
		return nil
	}

	var mnemonics []string
	seen := map[string]bool{}
	for _, node := range index.NodesOfType(model.NodeTypeLogCurve) {
		m, ok := node.String(model.AttrMnemonic)
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		mnemonics = append(mnemonics, m)
	}
	return mnemonics
}
