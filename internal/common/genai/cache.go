package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache stores vectors keyed by model and text. Cache failures are
// never fatal; a miss just means another upstream call.
type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool)
	Set(ctx context.Context, model, text string, vector []float32)
}

type RedisEmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEmbeddingCache(client *redis.Client, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

func EmbeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "fep:embedding:" + model + ":" + hex.EncodeToString(sum[:])
}

func (r *RedisEmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	val, err := r.client.Get(ctx, EmbeddingKey(model, text)).Result()
	if err != nil {
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return nil, false
	}
	return v, true
}

func (r *RedisEmbeddingCache) Set(ctx context.Context, model, text string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	r.client.Set(ctx, EmbeddingKey(model, text), data, r.ttl)
}
