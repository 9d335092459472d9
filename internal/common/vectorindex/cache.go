package vectorindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSearcher memoises search results for identical queries.
type CachedSearcher struct {
	inner Searcher
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedSearcher(inner Searcher, client *redis.Client, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{inner: inner, redis: client, ttl: ttl}
}

func RetrievalKey(query string, k int) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("fep:retrieval:%d:%s", k, hex.EncodeToString(sum[:]))
}

func (c *CachedSearcher) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	key := RetrievalKey(query, k)
	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var hits []ScoredChunk
		if err := json.Unmarshal([]byte(val), &hits); err == nil {
			return hits, nil
		}
	}

	hits, err := c.inner.SimilaritySearchWithScore(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		data, _ := json.Marshal(hits)
		c.redis.Set(ctx, key, data, c.ttl)
	}
	return hits, nil
}
