package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/wellgraph/model"
)

// CacheKeyPrefix prefixes every key written by CachedRetriever
const CacheKeyPrefix = "wellgraph:retrieval:"

// Cache stores serialized retrieval results
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedRetriever serves repeated queries from a cache. Cache failures are
// logged and the query is answered by the wrapped retriever.
type CachedRetriever struct {
	next  Retriever
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedRetriever wraps a retriever with a cache
func NewCachedRetriever(next Retriever, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRetriever{next: next, cache: cache, ttl: ttl, log: logger}
}

// CacheKey returns the cache key of a query text. Keys are case and
// whitespace sensitive apart from the surrounding space.
func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(query)))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Retrieve returns the cached result of the query or retrieves and stores it
func (c *CachedRetriever) Retrieve(ctx context.Context, query string) (*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	key := CacheKey(query)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("Error reading retrieval cache", slog.String("key", key), slog.String("error", err.Error()))
	}
	if ok {
		result := &model.RetrievalResult{}
		if err := json.Unmarshal(data, result); err == nil {
			result.Metadata.CacheHit = true
			return result, nil
		}
		c.log.Warn("Discarding undecodable cache entry", slog.String("key", key))
	}

	result, err := c.next.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(result)
	if err != nil {
		c.log.Warn("Error encoding retrieval result", slog.String("error", err.Error()))
		return result, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("Error writing retrieval cache", slog.String("key", key), slog.String("error", err.Error()))
	}
	return result, nil
}
