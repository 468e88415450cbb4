package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraptor/engine/store"
)

func TestCachedSummarizer_SecondCallHitsCache(t *testing.T) {
	inner := &countingSummarizer{response: "an abstracted summary of the content"}
	kv := store.NewSimpleKVStore()
	c := NewCachedSummarizer(inner, kv)

	out1, err := c.Summarize(context.Background(), "source text", 100)
	require.NoError(t, err)
	out2, err := c.Summarize(context.Background(), "source text", 100)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSummarizer_DifferentLayerMissesCache(t *testing.T) {
	inner := &countingSummarizer{response: "an abstracted summary of the content"}
	kv := store.NewSimpleKVStore()
	c := NewCachedSummarizer(inner, kv)

	_, err := c.SummarizeLayer(context.Background(), "source text", LayerSummary, 100)
	require.NoError(t, err)
	_, err = c.SummarizeLayer(context.Background(), "source text", LayerBullets, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSummarizer_DiscardsEntryThatNowViolatesGuard(t *testing.T) {
	sourceText := "The quick brown fox jumps over the lazy dog near the old wooden bridge every single morning without fail this season"
	inner := &countingSummarizer{response: sourceText}
	kv := store.NewSimpleKVStore()
	c := NewCachedSummarizer(inner, kv)

	_, err := c.Summarize(context.Background(), sourceText, 200)
	require.NoError(t, err)
	_, err = c.Summarize(context.Background(), sourceText, 200)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "cached entry copying the source verbatim must be recomputed, not reused")
}

// countingSummarizer is a test double tracking how many times
// SummarizeLayer was called.
type countingSummarizer struct {
	response string
	err      error
	calls    int
}

func (c *countingSummarizer) Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error) {
	return c.SummarizeLayer(ctx, contextStr, LayerSummary, maxTokens)
}

func (c *countingSummarizer) SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *countingSummarizer) ModelID() string { return "counting-summarizer" }

var _ Summarizer = (*countingSummarizer)(nil)
