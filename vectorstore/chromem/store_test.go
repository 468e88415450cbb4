package chromem

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chromem_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	store, err := New(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	require.NoError(t, store.Upsert(ctx, "t1", "m1", 1, []float64{1.0, 0.0, 0.0}))
	require.NoError(t, store.Upsert(ctx, "t1", "m1", 2, []float64{0.0, 1.0, 0.0}))

	results, err := store.Query(ctx, "t1", "m1", []float64{1.0, 0.0, 0.0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Index)
	assert.InDelta(t, 1.0, results[0].Score, 0.0001)

	resultsB, err := store.Query(ctx, "t1", "m1", []float64{0.0, 1.0, 0.0}, 1)
	require.NoError(t, err)
	require.Len(t, resultsB, 1)
	assert.Equal(t, 2, resultsB[0].Index)

	// Re-opening against the same directory must see the same data.
	store2, err := New(tmpDir)
	require.NoError(t, err)
	reopened, err := store2.Query(ctx, "t1", "m1", []float64{1.0, 0.0, 0.0}, 1)
	require.NoError(t, err)
	require.Len(t, reopened, 1)
	assert.Equal(t, 1, reopened[0].Index)
}

func TestChromemStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := New("")
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, "t1", "m1", 1, []float64{0.5}))

	res, err := store.Query(ctx, "t1", "m1", []float64{0.5}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 1, res[0].Index)
}

func TestChromemStore_SeparatesCollectionsByTreeAndModel(t *testing.T) {
	ctx := context.Background()
	store, err := New("")
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, "t1", "m1", 1, []float64{1.0, 0.0}))
	require.NoError(t, store.Upsert(ctx, "t2", "m1", 1, []float64{0.0, 1.0}))

	res, err := store.Query(ctx, "t1", "m1", []float64{1.0, 0.0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.InDelta(t, 1.0, res[0].Score, 0.0001)
}

func TestChromemStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := New("")
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, "t1", "m1", 1, []float64{1.0, 0.0}))
	require.NoError(t, store.Delete(ctx, "t1", "m1", 1))

	res, err := store.Query(ctx, "t1", "m1", []float64{1.0, 0.0}, 5)
	require.NoError(t, err)
	assert.Len(t, res, 0)
}
