package wellgraph

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mnemonics = []string{"GR", "NPHI", "RHOB", "DT", "CALI"}

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(ctx context.Context, text string) ([]float32, error) {
	return []float32{
		float32(len(text)%7) + 1,
		float32(strings.Count(strings.ToLower(text), "curve")) + 1,
		1,
	}, nil
}

type staticStore struct {
	mu    sync.Mutex
	hits  []model.SearchHit
	calls int
}

func (s *staticStore) Search(ctx context.Context, embedding []float32, limit int, filter *model.SearchFilter) ([]model.SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.hits, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func testSnapshot(t *testing.T, wellIDs ...string) *model.Snapshot {
	snapshot := &model.Snapshot{}
	for i, wellID := range wellIDs {
		well, err := model.NewNode("well:"+wellID, model.NodeTypeWellDocument, map[string]any{
			model.AttrWellID:     wellID,
			model.AttrWellName:   strings.Replace(wellID, "_", "/", 1),
			model.AttrTotalDepth: 3000 + 100*i,
		})
		require.NoError(t, err)
		snapshot.Nodes = append(snapshot.Nodes, well)

		for _, m := range mnemonics {
			curve, err := model.NewNode(fmt.Sprintf("curve:%s:%s", wellID, m), model.NodeTypeLogCurve, map[string]any{
				model.AttrMnemonic: m,
				model.AttrWellID:   wellID,
			})
			require.NoError(t, err)
			snapshot.Nodes = append(snapshot.Nodes, curve)
			snapshot.Edges = append(snapshot.Edges, &model.Edge{SourceID: curve.ID, TargetID: well.ID, Type: model.EdgeTypeDescribes})
		}
	}
	return snapshot
}

func testLogger() *slog.Logger {
	return helper.NewLogger(&bytes.Buffer{}, slog.LevelDebug)
}

func TestNewFromSnapshot(t *testing.T) {
	t.Run("Valid call NewFromSnapshot", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13"), testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)
		require.NotNil(t, w.Engine())
		assert.Equal(t, 6, w.Index().Len())
		assert.NoError(t, w.Close())
	})

	t.Run("Invalid config is rejected", func(t *testing.T) {
		config := model.DefaultRetrievalConfig()
		config.RelationshipThreshold = 2
		_, err := NewFromSnapshot(testSnapshot(t), testEmbedder, &staticStore{}, config, testLogger())
		assert.Error(t, err)
	})

	t.Run("Nil snapshot is rejected", func(t *testing.T) {
		_, err := NewFromSnapshot(nil, testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		assert.Error(t, err)
	})
}

func TestRetrieve(t *testing.T) {
	t.Run("Lists the curves of a well", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13", "15_9-19"), testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)

		result, err := w.Retrieve(context.Background(), "What curves were measured in well 15/9-13?")
		require.NoError(t, err)
		assert.True(t, result.Metadata.GraphTraversalApplied)
		assert.Len(t, result.Candidates, 6)
		assert.InDelta(t, 6.0, result.Metadata.ExpansionRatio, 1e-9)
	})

	t.Run("Recognises known mnemonics in lower case", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13"), testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)

		result, err := w.Retrieve(context.Background(), "which well does the nphi curve belong to?")
		require.NoError(t, err)
		assert.Equal(t, "NPHI", result.Intent.Entities[model.EntityCurveMnemonic])
		assert.Contains(t, result.NodeIDs(), "well:15_9-13")
	})

	t.Run("Serves repeated queries from the cache", func(t *testing.T) {
		store := &staticStore{}
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13"), testEmbedder, store, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)
		w.SetCache(&mapCache{entries: map[string][]byte{}})

		first, err := w.Retrieve(context.Background(), "Tell me about 15/9-13")
		require.NoError(t, err)
		second, err := w.Retrieve(context.Background(), "Tell me about 15/9-13")
		require.NoError(t, err)

		assert.False(t, first.Metadata.CacheHit)
		assert.True(t, second.Metadata.CacheHit)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("Missing database cannot be reloaded", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t), testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)
		assert.Error(t, w.ReloadGraph(context.Background()))
		assert.Error(t, w.InsertSnapshot(context.Background(), testSnapshot(t, "15_9-13")))
	})
}

func TestReloadFromSnapshot(t *testing.T) {
	t.Run("Swaps the graph while queries run", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13"), testEmbedder, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := w.Retrieve(context.Background(), "What curves were measured in well 15/9-13?")
				if err != nil {
					errs <- err
					return
				}
				if len(result.Candidates) != 6 {
					errs <- fmt.Errorf("expected 6 candidates, got %d", len(result.Candidates))
				}
			}()
		}

		require.NoError(t, w.ReloadFromSnapshot(testSnapshot(t, "15_9-13", "15_9-19")))
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		assert.Equal(t, 12, w.Index().Len())
	})

	t.Run("Setting the embedder keeps the graph", func(t *testing.T) {
		w, err := NewFromSnapshot(testSnapshot(t, "15_9-13"), nil, &staticStore{}, model.DefaultRetrievalConfig(), testLogger())
		require.NoError(t, err)

		_, err = w.Retrieve(context.Background(), "Tell me about 15/9-13")
		assert.Error(t, err)

		w.SetEmbedder(testEmbedder)
		_, err = w.Retrieve(context.Background(), "Tell me about 15/9-13")
		assert.NoError(t, err)
		assert.Equal(t, 6, w.Index().Len())
	})
}
