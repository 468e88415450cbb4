package chromem

import (
	"context"
	"os"
	"testing"
)

// TestChromemPersistence checks that a reopened persistent store keeps
// separate, independently queryable collections per (treeID, modelID)
// rather than merging them on reload.
func TestChromemPersistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chromem_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create persistent store: %v", err)
	}

	ctx := context.Background()
	if err := store.Upsert(ctx, "incident-tree", "minilm", 7, []float64{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	if err := store.Upsert(ctx, "incident-tree", "openai-small", 7, []float64{0.9, 0.1, 0.0}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	store2, err := New(tmpDir)
	if err != nil {
		t.Fatalf("failed to create second persistent store: %v", err)
	}

	results, err := store2.Query(ctx, "incident-tree", "minilm", []float64{0.1, 0.2, 0.3}, 1)
	if err != nil {
		t.Fatalf("failed to query second store: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Index != 7 {
		t.Errorf("expected index 7, got %d", results[0].Index)
	}

	otherModel, err := store2.Query(ctx, "incident-tree", "openai-small", []float64{0.9, 0.1, 0.0}, 1)
	if err != nil {
		t.Fatalf("failed to query openai-small collection: %v", err)
	}
	if len(otherModel) != 1 || otherModel[0].Index != 7 {
		t.Fatalf("expected the openai-small collection to be indexed independently, got %+v", otherModel)
	}
}
