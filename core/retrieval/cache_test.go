package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/siherrmann/wellgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type countingRetriever struct {
	next  Retriever
	calls int
}

func (r *countingRetriever) Retrieve(ctx context.Context, query string) (*model.RetrievalResult, error) {
	r.calls++
	return r.next.Retrieve(ctx, query)
}

func newCountingRetriever(t *testing.T) *countingRetriever {
	f := newFixture(t)
	store := &fakeStore{hits: []model.SearchHit{hitOf(f.wells["15_9-13"], 0.9)}}
	return &countingRetriever{next: newTestEngine(f, store, testConfig())}
}

func TestCacheKey(t *testing.T) {
	t.Run("Key is prefixed and stable", func(t *testing.T) {
		key := CacheKey(curvesQuery)
		assert.True(t, strings.HasPrefix(key, CacheKeyPrefix))
		assert.Equal(t, key, CacheKey("  "+curvesQuery+"\n"))
		assert.NotEqual(t, key, CacheKey(wellQuery))
	})
}

func TestCachedRetriever(t *testing.T) {
	t.Run("Second call is served from the cache", func(t *testing.T) {
		next := newCountingRetriever(t)
		cache := newMemoryCache()
		retriever := NewCachedRetriever(next, cache, time.Minute, testLogger())

		first, err := retriever.Retrieve(context.Background(), curvesQuery)
		require.NoError(t, err)
		assert.False(t, first.Metadata.CacheHit)

		second, err := retriever.Retrieve(context.Background(), curvesQuery)
		require.NoError(t, err)
		assert.True(t, second.Metadata.CacheHit)
		assert.Equal(t, first.NodeIDs(), second.NodeIDs())
		assert.Equal(t, first.Metadata.RequestID, second.Metadata.RequestID)
		assert.Equal(t, 1, next.calls)
		assert.Equal(t, time.Minute, cache.ttls[CacheKey(curvesQuery)])
	})

	t.Run("Failing cache falls through to retrieval", func(t *testing.T) {
		next := newCountingRetriever(t)
		cache := newMemoryCache()
		cache.getErr = errors.New("cache down")
		cache.setErr = errors.New("cache down")
		retriever := NewCachedRetriever(next, cache, time.Minute, testLogger())

		for i := 0; i < 2; i++ {
			result, err := retriever.Retrieve(context.Background(), curvesQuery)
			require.NoError(t, err)
			assert.False(t, result.Metadata.CacheHit)
		}
		assert.Equal(t, 2, next.calls)
	})

	t.Run("Undecodable entry is replaced", func(t *testing.T) {
		next := newCountingRetriever(t)
		cache := newMemoryCache()
		cache.entries[CacheKey(curvesQuery)] = []byte("not json")
		retriever := NewCachedRetriever(next, cache, time.Minute, testLogger())

		result, err := retriever.Retrieve(context.Background(), curvesQuery)
		require.NoError(t, err)
		assert.False(t, result.Metadata.CacheHit)
		assert.Equal(t, 1, next.calls)
		assert.NotEqual(t, "not json", string(cache.entries[CacheKey(curvesQuery)]))
	})

	t.Run("Errors are not cached", func(t *testing.T) {
		f := newFixture(t)
		next := &countingRetriever{next: newTestEngine(f, &fakeStore{err: errors.New("down")}, testConfig())}
		cache := newMemoryCache()
		retriever := NewCachedRetriever(next, cache, time.Minute, testLogger())

		_, err := retriever.Retrieve(context.Background(), curvesQuery)
		assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
		assert.Empty(t, cache.entries)
	})

	t.Run("Blank query is rejected", func(t *testing.T) {
		retriever := NewCachedRetriever(newCountingRetriever(t), newMemoryCache(), time.Minute, testLogger())
		_, err := retriever.Retrieve(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}
