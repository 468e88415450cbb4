package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/store"
)

// cacheCollection is the KVStore collection embedding vectors are kept
// under, separate from any other data the store backs.
const cacheCollection = "embedding_cache"

// CachedClient wraps a Client with a persistent cache keyed on
// (model ID, sha256(text)) and a retry policy for transient provider
// failures (spec 4.2). A cache hit never touches the network; a miss
// is retried with exponential backoff and, only once every attempt is
// exhausted, surfaced as a KindTransient error — it never falls back
// to a zero vector.
type CachedClient struct {
	inner      Client
	kv         store.KVStore
	limiter    *rate.Limiter
	maxElapsed time.Duration
	logger     *zap.Logger
}

// CacheOption configures a CachedClient.
type CacheOption func(*CachedClient)

// WithCacheLogger attaches a structured logger.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *CachedClient) {
		c.logger = logger
	}
}

// WithRateLimit throttles outbound requests to the wrapped provider to
// rps requests per second, allowing bursts up to burst.
func WithRateLimit(rps float64, burst int) CacheOption {
	return func(c *CachedClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxElapsedTime bounds how long retries run before giving up on a
// single Embed or EmbedBatch call.
func WithMaxElapsedTime(d time.Duration) CacheOption {
	return func(c *CachedClient) {
		c.maxElapsed = d
	}
}

// NewCachedClient wraps inner with a persistent cache backed by kv.
func NewCachedClient(inner Client, kv store.KVStore, opts ...CacheOption) *CachedClient {
	c := &CachedClient{
		inner:      inner,
		kv:         kv,
		maxElapsed: 30 * time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.inner.ModelID() + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text, fetching and caching it on
// a miss.
func (c *CachedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	key := c.cacheKey(text)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	if err := c.wait(ctx, 1); err != nil {
		return nil, err
	}

	var vector []float64
	err := c.retry(ctx, func() error {
		v, err := c.inner.Embed(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "embedding request failed after retries", err)
	}

	c.put(ctx, key, vector)
	return vector, nil
}

// EmbedBatch returns cached vectors where present and fetches the rest
// in a single provider call.
func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := c.cacheKey(t)
		if v, ok := c.lookup(ctx, key); ok {
			results[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	if err := c.wait(ctx, len(missTexts)); err != nil {
		return nil, err
	}

	var vectors [][]float64
	err := c.retry(ctx, func() error {
		v, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "embedding batch request failed after retries", err)
	}
	if len(vectors) != len(missTexts) {
		return nil, engineerr.New(engineerr.KindTransient, "embedding batch returned a mismatched vector count")
	}

	for j, idx := range missIdx {
		results[idx] = vectors[j]
		c.put(ctx, c.cacheKey(missTexts[j]), vectors[j])
	}
	return results, nil
}

func (c *CachedClient) Dimensionality() int {
	return c.inner.Dimensionality()
}

func (c *CachedClient) ModelID() string {
	return c.inner.ModelID()
}

func (c *CachedClient) wait(ctx context.Context, n int) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.WaitN(ctx, n); err != nil {
		return engineerr.Wrap(engineerr.KindTransient, "embedding rate limiter wait failed", err)
	}
	return nil
}

func (c *CachedClient) retry(ctx context.Context, operation backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), c.maxElapsed), ctx)
	return backoff.Retry(operation, policy)
}

// lookup returns the cached vector for key, if any. A malformed cache
// entry is logged and treated as a miss rather than failing the call.
func (c *CachedClient) lookup(ctx context.Context, key string) ([]float64, bool) {
	val, err := c.kv.Get(ctx, key, cacheCollection)
	if err != nil {
		c.logger.Warn("embedding cache lookup failed", zap.Error(err), zap.String("key", key))
		return nil, false
	}
	if val == nil {
		return nil, false
	}
	raw, ok := val["vector"]
	if !ok {
		return nil, false
	}
	vector, err := toFloat64Slice(raw)
	if err != nil {
		c.logger.Warn("discarding corrupt embedding cache entry",
			zap.Error(engineerr.Wrap(engineerr.KindCacheCorruption, "cached vector is malformed", err)),
			zap.String("key", key))
		return nil, false
	}
	return vector, true
}

func (c *CachedClient) put(ctx context.Context, key string, vector []float64) {
	err := c.kv.Put(ctx, key, store.StoredValue{
		"vector": vector,
		"model":  c.inner.ModelID(),
	}, cacheCollection)
	if err != nil {
		c.logger.Warn("failed to persist embedding cache entry", zap.Error(err), zap.String("key", key))
	}
}

// toFloat64Slice normalizes a cached vector, which round-trips through
// JSON as []interface{} once a FileKVStore has serialized and reloaded
// it, back into []float64.
func toFloat64Slice(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		out := make([]float64, len(v))
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return nil, engineerr.New(engineerr.KindCacheCorruption, "vector element is not numeric")
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, engineerr.New(engineerr.KindCacheCorruption, "vector has an unexpected type")
	}
}

var _ Client = (*CachedClient)(nil)
