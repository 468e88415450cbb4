package keywords

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/llm"
)

func TestHybridExtractor_CombinesSignalsAndCapsResults(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{"keywords": []string{"revenue growth", "cloud division"}})
	mockLLM := &llm.MockLLM{StructuredJSON: raw}
	llmSource := NewLLMKeywordSource(mockLLM)
	entities := NewEntityExtractor()

	h := NewHybridExtractor(llmSource, entities, 5)

	text := "Quarterly revenue growth in the Cloud Division exceeded forecasts, with revenue growth up sharply."
	corpus := []string{"weather forecast across the region tomorrow"}
	headings := []string{"revenue growth"}

	results, err := h.Extract(context.Background(), text, corpus, headings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one combined keyword")
	}
	if len(results) > 12 {
		t.Fatalf("expected at most 12 keywords, got %d", len(results))
	}
	found := false
	for _, r := range results {
		if r.Term == "revenue growth" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected heading+llm+tfidf reinforced term among results, got %+v", results)
	}
}

func TestHybridExtractor_SemanticExpansionAddsVariant(t *testing.T) {
	llmSource := NewLLMKeywordSource(&llm.MockLLM{StructuredJSON: json.RawMessage(`{"keywords":["server"]}`)})
	entities := NewEntityExtractor()

	embedder := &embedding.MockClient{Vector: []float64{1, 0, 0}}
	h := NewHybridExtractor(llmSource, entities, 5, WithEmbedder(embedder, 0.5))

	text := "the server handles requests; servers are load balanced across regions"
	results, err := h.Extract(context.Background(), text, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, r := range results {
		if r.Term == "servers" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected semantic expansion to add plural variant 'servers', got %+v", results)
	}
}
