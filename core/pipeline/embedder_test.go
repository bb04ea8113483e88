package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEmbedder(t *testing.T) EmbedFunc {
	if testing.Short() {
		t.Skip("Skipping embedder test in short mode (requires model download)")
	}
	embedder, err := DefaultEmbedder()
	if err != nil {
		t.Skipf("embedding model not available: %v", err)
	}
	return embedder
}

func TestDefaultEmbedder(t *testing.T) {
	embedder := loadEmbedder(t)
	ctx := context.Background()

	t.Run("Generate embedding for a query", func(t *testing.T) {
		embedding, err := embedder(ctx, "Which curves were logged in well 15/9-13?")

		require.NoError(t, err)
		assert.Len(t, embedding, 384, "all-MiniLM-L6-v2 produces 384-dimensional embeddings")

		hasNonZero := false
		for _, val := range embedding {
			if val != 0 {
				hasNonZero = true
				break
			}
		}
		assert.True(t, hasNonZero, "Embedding should contain non-zero values")
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		first, err := embedder(ctx, "gamma ray log")
		require.NoError(t, err)
		second, err := embedder(ctx, "gamma ray log")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("Cancelled context is returned before embedding", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := embedder(cancelled, "gamma ray log")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
