package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kgraptor/engine/llm"
)

func sampleAnalysisJSON() json.RawMessage {
	raw, _ := json.Marshal(map[string]interface{}{
		"knowledge_type":            "procedural",
		"knowledge_type_confidence": 0.9,
		"entities": []map[string]interface{}{
			{"name": "Kafka", "type": "technology", "confidence": 0.8},
			{"name": "Postgres", "type": "technology", "confidence": 0.7},
		},
		"relationships": []map[string]interface{}{},
		"importance":    map[string]interface{}{"overall_importance": 0.6},
		"summary":       "how to tune kafka back-pressure",
		"keywords":      []string{"kafka", "back-pressure"},
	})
	return raw
}

func TestAnalyzer_SingleCallProducesResult(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: sampleAnalysisJSON()}
	a := NewAnalyzer(mock, Config{Mode: ModeSingleCall})

	result, err := a.Analyze(context.Background(), Chunk{Text: "how to tune kafka back-pressure"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.KnowledgeType != "procedural" {
		t.Fatalf("expected knowledge_type procedural, got %q", result.KnowledgeType)
	}
	if len(result.Entities) != 2 || result.Entities[0].CanonicalName != "kafka" {
		t.Fatalf("expected canonical names to be derived, got %+v", result.Entities)
	}
	if result.Importance.Overall != 0.6 {
		t.Fatalf("expected overall importance to round-trip, got %v", result.Importance.Overall)
	}
}

// failingLLM always returns an error, to exercise the retry-then-fallback path.
type failingLLM struct{}

func (f *failingLLM) CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	return nil, errors.New("structured call always fails")
}

var _ llm.StructuredLLM = (*failingLLM)(nil)

func TestAnalyzer_FallsBackToMinimalResultAfterRetries(t *testing.T) {
	a := NewAnalyzer(&failingLLM{}, Config{Mode: ModeSingleCall, MaxRetries: 1})

	result, err := a.Analyze(context.Background(), Chunk{Text: "anything"})
	if err != nil {
		t.Fatalf("expected Analyze to never throw, got error: %v", err)
	}
	if result.KnowledgeTypeConfidence != 0 {
		t.Fatalf("expected minimal result's confidence to be 0")
	}
	if result.Entities == nil || len(result.Entities) != 0 {
		t.Fatalf("expected minimal result to carry an empty (not nil) entity list")
	}
}

func TestAnalyzer_StepwiseProducesResultWithDerivedKeywords(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: sampleAnalysisJSON()}
	a := NewAnalyzer(mock, Config{Mode: ModeStepwise})

	result, err := a.Analyze(context.Background(), Chunk{Text: "Kafka back-pressure tuning guide"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keywords) == 0 {
		t.Fatalf("expected non-empty derived keywords")
	}
	if result.Summary == "" {
		t.Fatalf("expected summary to be populated")
	}
}

func TestCanonicalize_LowercasesAndKebabCases(t *testing.T) {
	if got := Canonicalize("Redis Session Store"); got != "redis-session-store" {
		t.Fatalf("expected kebab-cased canonical name, got %q", got)
	}
}

func TestAnalyzer_AnalyzeBatchReturnsResultsInInputOrder(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: sampleAnalysisJSON()}
	a := NewAnalyzer(mock, Config{Mode: ModeSingleCall, MaxConcurrent: 2})

	chunks := make([]Chunk, 8)
	for i := range chunks {
		chunks[i] = Chunk{Text: "how to tune kafka back-pressure"}
	}

	results, err := a.AnalyzeBatch(context.Background(), chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(chunks) {
		t.Fatalf("expected %d results, got %d", len(chunks), len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("expected result %d to be populated", i)
		}
		if r.KnowledgeType != "procedural" {
			t.Fatalf("expected result %d to carry the decoded analysis, got %+v", i, r)
		}
	}
}

func TestAnalyzer_AnalyzeBatchNeverFailsOnPerChunkLLMError(t *testing.T) {
	a := NewAnalyzer(&failingLLM{}, Config{Mode: ModeSingleCall, MaxRetries: 1, MaxConcurrent: 3})

	results, err := a.AnalyzeBatch(context.Background(), []Chunk{{Text: "a"}, {Text: "b"}})
	if err != nil {
		t.Fatalf("expected AnalyzeBatch to never throw on LLM failure, got: %v", err)
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("expected minimal result %d, got nil", i)
		}
	}
}

func TestAnalyzer_AnalyzeBatchPropagatesContextCancellation(t *testing.T) {
	a := NewAnalyzer(&llm.MockLLM{StructuredJSON: sampleAnalysisJSON()}, Config{Mode: ModeSingleCall})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.AnalyzeBatch(ctx, []Chunk{{Text: "a"}}); err == nil {
		t.Fatalf("expected cancelled context to surface as an error")
	}
}
