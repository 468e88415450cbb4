package summarizer

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"

	"github.com/kgraptor/engine/store"
)

const summaryCacheCollection = "summary_cache"

// CachedSummarizer wraps a Summarizer with a persistent cache keyed by
// (model_id, layer, max_tokens, sha256(context)), generalizing the
// teacher's IngestionCache (ingestion/cache.go) collection-keyed shape
// from caching split nodes to caching summary text. On read, cached
// entries that now fail the anti-copy guard are discarded and
// recomputed rather than returned, per spec 4.3.
type CachedSummarizer struct {
	inner  Summarizer
	kv     store.KVStore
	logger *zap.Logger
}

// CacheOption configures a CachedSummarizer.
type CacheOption func(*CachedSummarizer)

// WithCacheLogger attaches a structured logger.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *CachedSummarizer) { c.logger = logger }
}

// NewCachedSummarizer wraps inner with a cache backed by kv.
func NewCachedSummarizer(inner Summarizer, kv store.KVStore, opts ...CacheOption) *CachedSummarizer {
	c := &CachedSummarizer{inner: inner, kv: kv, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedSummarizer) Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error) {
	return c.SummarizeLayer(ctx, contextStr, LayerSummary, maxTokens)
}

func (c *CachedSummarizer) SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error) {
	key := summaryCacheKey(c.inner.ModelID(), layer, maxTokens, contextStr)

	if cached, ok := c.lookup(ctx, key, contextStr); ok {
		return cached, nil
	}

	output, err := c.inner.SummarizeLayer(ctx, contextStr, layer, maxTokens)
	if err != nil {
		return "", err
	}

	c.put(ctx, key, output)
	return output, nil
}

func (c *CachedSummarizer) ModelID() string {
	return c.inner.ModelID()
}

func (c *CachedSummarizer) lookup(ctx context.Context, key, contextStr string) (string, bool) {
	val, err := c.kv.Get(ctx, key, summaryCacheCollection)
	if err != nil {
		c.logger.Warn("summary cache lookup failed", zap.Error(err))
		return "", false
	}
	if val == nil {
		return "", false
	}

	text, ok := val["text"].(string)
	if !ok {
		c.logger.Warn("summary cache entry has unexpected shape, treating as miss")
		return "", false
	}

	if ViolatesAntiCopyGuard(text, contextStr) {
		c.logger.Info("discarding cached summary that fails anti-copy guard")
		return "", false
	}

	return text, true
}

func (c *CachedSummarizer) put(ctx context.Context, key, text string) {
	err := c.kv.Put(ctx, key, store.StoredValue{"text": text}, summaryCacheCollection)
	if err != nil {
		c.logger.Warn("failed to persist summary cache entry", zap.Error(err))
	}
}

func summaryCacheKey(modelID string, layer Layer, maxTokens int, contextStr string) string {
	sum := sha256.Sum256([]byte(contextStr))
	return fmt.Sprintf("%s|%s|%d|%x", modelID, layer, maxTokens, sum)
}

var _ Summarizer = (*CachedSummarizer)(nil)
