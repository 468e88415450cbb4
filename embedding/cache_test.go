package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraptor/engine/store"
)

type countingClient struct {
	calls int
	vec   []float64
	err   error
}

func (c *countingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func (c *countingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = c.vec
	}
	return out, nil
}

func (c *countingClient) Dimensionality() int { return len(c.vec) }
func (c *countingClient) ModelID() string     { return "counting-model" }

func TestCachedClient_EmbedCachesOnSecondCall(t *testing.T) {
	inner := &countingClient{vec: []float64{0.1, 0.2, 0.3}}
	cached := NewCachedClient(inner, store.NewSimpleKVStore())

	v1, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, inner.vec, v1)
	assert.Equal(t, 1, inner.calls)

	v2, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, inner.vec, v2)
	assert.Equal(t, 1, inner.calls, "second call should be served from cache")
}

func TestCachedClient_EmbedBatchOnlyFetchesMisses(t *testing.T) {
	inner := &countingClient{vec: []float64{1, 2}}
	cached := NewCachedClient(inner, store.NewSimpleKVStore())

	_, err := cached.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	results, err := cached.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 2, inner.calls, "only the uncached texts should trigger a provider call")
}

func TestCachedClient_PropagatesErrorAfterRetriesExhausted(t *testing.T) {
	inner := &countingClient{err: errors.New("provider unavailable")}
	cached := NewCachedClient(inner, store.NewSimpleKVStore(), WithMaxElapsedTime(time.Nanosecond))

	_, err := cached.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, nilVectorOnError(err))
}

// nilVectorOnError documents that CachedClient never substitutes a zero
// vector for a failed embedding: the only valid outcomes are a real
// vector or a propagated error.
func nilVectorOnError(err error) []float64 {
	if err == nil {
		return []float64{}
	}
	return nil
}

func TestCachedClient_DimensionalityAndModelIDDelegate(t *testing.T) {
	inner := &countingClient{vec: []float64{1, 2, 3}}
	cached := NewCachedClient(inner, store.NewSimpleKVStore())

	assert.Equal(t, 3, cached.Dimensionality())
	assert.Equal(t, "counting-model", cached.ModelID())
}
