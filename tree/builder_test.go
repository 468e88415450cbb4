package tree

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/keywords"
	"github.com/kgraptor/engine/llm"
	"github.com/kgraptor/engine/summarizer"
)

func testHybridExtractor() *keywords.HybridExtractor {
	raw, _ := json.Marshal(map[string]interface{}{"keywords": []string{"topic"}})
	llmSource := keywords.NewLLMKeywordSource(&llm.MockLLM{StructuredJSON: raw})
	entities := keywords.NewEntityExtractor()
	return keywords.NewHybridExtractor(llmSource, entities, 5)
}

// groupedEmbedder returns the vector groupOf picks for each input text,
// so tests can put texts into separable clusters.
type groupedEmbedder struct {
	groupOf func(text string) []float64
}

func (g *groupedEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return g.groupOf(text), nil
}
func (g *groupedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = g.Embed(ctx, t)
	}
	return out, nil
}
func (g *groupedEmbedder) Dimensionality() int { return 4 }
func (g *groupedEmbedder) ModelID() string     { return "grouped-mock" }

var _ embedding.Client = (*groupedEmbedder)(nil)

func TestBuilder_BuildFromChunksProducesLeavesAndOneParentLayer(t *testing.T) {
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
	b := NewBuilder(cfg, []EmbeddingModel{{ID: "grouped-mock", Client: embedder}}, summarizer.NewMockSummarizer("a tidy abstractive summary"), testHybridExtractor())

	chunks := []Chunk{
		{Text: "A document about kafka back-pressure", SourceID: "a.md"},
		{Text: "A second document about kafka tuning", SourceID: "a.md"},
		{Text: "B document about postgres vacuum", SourceID: "b.md"},
		{Text: "B second document about postgres indexes", SourceID: "b.md"},
	}

	tr, err := b.BuildFromChunks(context.Background(), "t1", chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tr.LeafNodes()) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(tr.LeafNodes()))
	}
	if len(tr.LayerNodes(1)) == 0 {
		t.Fatalf("expected at least one layer-1 node")
	}
	for _, parent := range tr.LayerNodes(1) {
		if len(parent.Children) == 0 {
			t.Fatalf("expected parent to have children")
		}
		if parent.Text != "a tidy abstractive summary" {
			t.Fatalf("expected mock summary text, got %q", parent.Text)
		}
		if _, ok := parent.Embeddings["grouped-mock"]; !ok {
			t.Fatalf("expected parent to carry fresh embeddings")
		}
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("expected valid tree, got error: %v", err)
	}
}

func TestBuilder_StopsWhenBelowReductionDimensionThreshold(t *testing.T) {
	embedder := &groupedEmbedder{groupOf: func(text string) []float64 { return []float64{1, 2, 3} }}
	cfg := BuilderConfig{
		ReductionDimension:         5,
		MaxLayers:                  3,
		ClusterModelID:             "grouped-mock",
		DefaultSummarizationTokens: 100,
	}
	b := NewBuilder(cfg, []EmbeddingModel{{ID: "grouped-mock", Client: embedder}}, summarizer.NewMockSummarizer("summary"), testHybridExtractor())

	chunks := []Chunk{{Text: "only one chunk"}}
	tr, err := b.BuildFromChunks(context.Background(), "t1", chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.NumLayers() != 0 {
		t.Fatalf("expected build to stop at layer 0 when node count <= reduction_dimension+1, got numLayers=%d", tr.NumLayers())
	}
}
