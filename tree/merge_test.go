package tree

import (
	"context"
	"testing"

	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/summarizer"
)

func TestInserter_MergeBringsInSourceLeavesAndDiscardsSourceInterior(t *testing.T) {
	target := NewTree("target")
	tLeaf := target.AddNode(&schema.Node{Text: "target leaf", Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 0)
	tParent := target.AddNode(&schema.Node{Text: "target summary", Children: []int{tLeaf}, Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 1)
	target.InstallLayer(1, []int{tParent})
	targetLeavesBefore := len(target.LeafNodes())

	source := NewTree("source")
	sLeaf0 := source.AddNode(&schema.Node{Text: "source leaf, similar", Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 0)
	sLeaf1 := source.AddNode(&schema.Node{Text: "source leaf, unrelated", Embeddings: map[string][]float64{"fixed-mock": {-1, 0, 0}}}, 0)
	sParent := source.AddNode(&schema.Node{Text: "source summary", Children: []int{sLeaf0, sLeaf1}, Embeddings: map[string][]float64{"fixed-mock": {0, 1, 0}}}, 1)
	source.InstallLayer(1, []int{sParent})
	leafCountSource := len(source.LeafNodes())

	ins := NewInserter(
		IncrementalConfig{SimilarityThreshold: 0.9, ClusterModelID: "fixed-mock"},
		nil,
		summarizer.NewMockSummarizer("merged summary"),
		testHybridExtractor(),
	)

	merged, err := ins.Merge(context.Background(), target, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged != leafCountSource {
		t.Fatalf("expected %d leaves merged, got %d", leafCountSource, merged)
	}

	if got := len(target.LeafNodes()); got != targetLeavesBefore+leafCountSource {
		t.Fatalf("leaf_count_target_after invariant violated: got %d, want %d", got, targetLeavesBefore+leafCountSource)
	}

	if len(target.Children(tParent)) != 2 {
		t.Fatalf("expected the similar source leaf to attach to the existing target parent, got %d children", len(target.Children(tParent)))
	}
	if len(target.LayerNodes(1)) != 2 {
		t.Fatalf("expected the unrelated source leaf to get its own new parent, got %d layer-1 nodes", len(target.LayerNodes(1)))
	}

	for _, n := range target.AllNodes() {
		if n.Text == "source summary" {
			t.Fatalf("source's interior node must be discarded, not carried into target")
		}
	}
	if err := target.Validate(); err != nil {
		t.Fatalf("expected merged target to remain a valid tree, got: %v", err)
	}
}

func TestInserter_MergeNeverDeletesExistingTargetNodes(t *testing.T) {
	target := NewTree("target")
	leaf := target.AddNode(&schema.Node{Text: "leaf", Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 0)
	parent := target.AddNode(&schema.Node{Text: "summary", Children: []int{leaf}, Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 1)
	target.InstallLayer(1, []int{parent})
	before := len(target.AllNodes())

	source := NewTree("source")
	source.AddNode(&schema.Node{Text: "new leaf", Embeddings: map[string][]float64{"fixed-mock": {1, 0, 0}}}, 0)

	ins := NewInserter(
		IncrementalConfig{SimilarityThreshold: 0.5, ClusterModelID: "fixed-mock"},
		nil,
		summarizer.NewMockSummarizer("summary"),
		testHybridExtractor(),
	)
	if _, err := ins.Merge(context.Background(), target, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(target.AllNodes()) <= before {
		t.Fatalf("expected target node count to grow, never shrink")
	}
}

func TestBuilder_BuildFromLeavesRebuildsUpperLayersFromExistingLeaves(t *testing.T) {
	embedder := &groupedEmbedder{groupOf: func(text string) []float64 {
		if len(text) > 0 && text[0] == 'A' {
			return []float64{0, 0, 0, 0}
		}
		return []float64{10, 10, 10, 10}
	}}

	cfg := BuilderConfig{
		ReductionDimension:         2,
		AutoDepth:                  true,
		TargetTopNodes:             2,
		MaxLayers:                  3,
		MaxWorkers:                 2,
		MaxClusters:                2,
		SoftClusterThreshold:       0.3,
		DefaultSummarizationTokens: 100,
		ClusterModelID:             "grouped-mock",
	}
	b := NewBuilder(cfg, []EmbeddingModel{{ID: "grouped-mock", Client: embedder}}, summarizer.NewMockSummarizer("compacted summary"), testHybridExtractor())

	leaves := []*schema.Node{
		{Text: "A leaf one", Embeddings: map[string][]float64{"grouped-mock": {0, 0, 0, 0}}},
		{Text: "A leaf two", Embeddings: map[string][]float64{"grouped-mock": {0, 0, 0, 0}}},
		{Text: "B leaf one", Embeddings: map[string][]float64{"grouped-mock": {10, 10, 10, 10}}},
		{Text: "B leaf two", Embeddings: map[string][]float64{"grouped-mock": {10, 10, 10, 10}}},
	}

	tr, err := b.BuildFromLeaves(context.Background(), "compacted", leaves)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.LeafNodes()) != 4 {
		t.Fatalf("expected 4 leaves carried over, got %d", len(tr.LeafNodes()))
	}
	if len(tr.LayerNodes(1)) == 0 {
		t.Fatalf("expected rebuilt layer-1 nodes")
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("expected valid tree, got: %v", err)
	}
}

func TestCompact_CollectsLeavesFromAllTreesAndRebuilds(t *testing.T) {
	embedder := &groupedEmbedder{groupOf: func(text string) []float64 {
		if len(text) > 0 && text[0] == 'A' {
			return []float64{0, 0, 0, 0}
		}
		return []float64{10, 10, 10, 10}
	}}
	cfg := BuilderConfig{
		ReductionDimension:         2,
		AutoDepth:                  true,
		TargetTopNodes:             2,
		MaxLayers:                  3,
		MaxWorkers:                 2,
		MaxClusters:                2,
		SoftClusterThreshold:       0.3,
		DefaultSummarizationTokens: 100,
		ClusterModelID:             "grouped-mock",
	}
	b := NewBuilder(cfg, []EmbeddingModel{{ID: "grouped-mock", Client: embedder}}, summarizer.NewMockSummarizer("compacted summary"), testHybridExtractor())

	treeA := NewTree("a")
	treeA.AddNode(&schema.Node{Text: "A one", Embeddings: map[string][]float64{"grouped-mock": {0, 0, 0, 0}}}, 0)
	treeA.AddNode(&schema.Node{Text: "A two", Embeddings: map[string][]float64{"grouped-mock": {0, 0, 0, 0}}}, 0)

	treeB := NewTree("b")
	treeB.AddNode(&schema.Node{Text: "B one", Embeddings: map[string][]float64{"grouped-mock": {10, 10, 10, 10}}}, 0)
	treeB.AddNode(&schema.Node{Text: "B two", Embeddings: map[string][]float64{"grouped-mock": {10, 10, 10, 10}}}, 0)

	merged, err := Compact(context.Background(), b, "compacted", []*Tree{treeA, treeB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged.LeafNodes()) != 4 {
		t.Fatalf("expected leaves from both trees, got %d", len(merged.LeafNodes()))
	}
}
