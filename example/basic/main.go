package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/wellgraph"
	"github.com/siherrmann/wellgraph/cache"
	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
)

var sampleMnemonics = []string{"GR", "NPHI", "RHOB", "DT", "CALI", "RDEP"}

var sampleQueries = []string{
	"What curves were measured in well 15/9-13?",
	"Which well does the NPHI curve belong to?",
	"How many wells are there?",
	"What is the deepest well?",
	"Is 15/9-13 deeper than 15/9-F-11?",
	"List the operators of all wells",
}

// sampleSnapshot builds three wells with a few curves each
func sampleSnapshot() (*model.Snapshot, error) {
	wells := []struct {
		id       string
		name     string
		operator string
		depth    float64
	}{
		{"15_9-13", "15/9-13", "Equinor", 3450},
		{"15_9-19", "15/9-19", "Statoil", 2900},
		{"15_9-F-11", "15/9-F-11", "Equinor", 4100},
	}

	snapshot := &model.Snapshot{}
	for _, w := range wells {
		well, err := model.NewNode("well:"+w.id, model.NodeTypeWellDocument, map[string]any{
			model.AttrWellID:     w.id,
			model.AttrWellName:   w.name,
			model.AttrOperator:   w.operator,
			model.AttrField:      "Volve",
			model.AttrTotalDepth: w.depth,
		})
		if err != nil {
			return nil, err
		}
		snapshot.Nodes = append(snapshot.Nodes, well)

		for _, m := range sampleMnemonics {
			curve, err := model.NewNode(fmt.Sprintf("curve:%s:%s", w.id, m), model.NodeTypeLogCurve, map[string]any{
				model.AttrMnemonic: m,
				model.AttrWellID:   w.id,
			})
			if err != nil {
				return nil, err
			}
			snapshot.Nodes = append(snapshot.Nodes, curve)
			snapshot.Edges = append(snapshot.Edges, &model.Edge{SourceID: curve.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes})
		}
	}
	return snapshot, nil
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	config := model.DefaultRetrievalConfig()
	if path := os.Getenv("WELLGRAPH_CONFIG"); path != "" {
		config, err = model.LoadRetrievalConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	w, err := wellgraph.NewWellGraph(dbConfig, 384, config)
	if err != nil {
		log.Fatalf("Failed to create wellgraph: %v", err)
	}
	defer w.Close()

	if err := w.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	if url := os.Getenv("WELLGRAPH_REDIS_URL"); url != "" {
		redisCache, err := cache.NewRedisCache(cache.RedisOptions{URL: url})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		w.SetCache(redisCache)
	}

	var snapshot *model.Snapshot
	if len(os.Args) > 1 {
		snapshot, err = model.LoadSnapshotFile(os.Args[1])
	} else {
		snapshot, err = sampleSnapshot()
	}
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	fmt.Println("Ingesting snapshot...")
	if err := w.InsertSnapshot(context.Background(), snapshot); err != nil {
		log.Fatalf("Failed to insert snapshot: %v", err)
	}
	stats := w.Index().Stats()
	fmt.Printf("Graph has %d nodes and %d edges (%d dropped)\n", stats.Nodes, stats.Edges, stats.DroppedEdges)

	for _, query := range sampleQueries {
		fmt.Printf("\nQuerying: %s\n", query)

		result, err := w.Retrieve(context.Background(), query)
		if err != nil {
			log.Fatalf("Failed to retrieve: %v", err)
		}

		fmt.Printf("Intent: aggregation=%q relationship=%q confidence=%.2f\n",
			result.Intent.AggregationType, result.Intent.RelationshipType, result.Intent.Confidence)
		fmt.Printf("Strategies: %v\n", result.Metadata.Strategies)

		if result.Aggregation != nil {
			fmt.Printf("Aggregation: %s %s %v\n", result.Aggregation.Status, result.Aggregation.Answer, result.Aggregation.Values)
			continue
		}
		for i, c := range result.Candidates {
			if i == 5 {
				fmt.Printf("... %d more\n", len(result.Candidates)-i)
				break
			}
			fmt.Printf("  %.4f %s (%s)\n", c.FinalScore, c.Node.Label(), c.Provenance)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
