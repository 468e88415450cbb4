package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kgraptor/engine/llm"
)

func resolutionJSON(relationship, recommendation string, mergedContent string) json.RawMessage {
	raw, _ := json.Marshal(map[string]interface{}{
		"relationship":   relationship,
		"recommendation": recommendation,
		"confidence":     0.9,
		"importance_adjustment": map[string]interface{}{
			"existing_multiplier": 0.5,
			"new_importance":      0.8,
		},
		"merged_content": mergedContent,
	})
	return raw
}

func TestResolver_DropsMatchesBelowThreshold(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("unrelated", "skip", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.8})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new"}, []ExistingMatch{
		{NodeID: 1, Content: "old", SimilarityScore: 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != nil {
		t.Fatalf("expected nil outcome when all matches are below threshold, got %+v", outcome)
	}
}

func TestResolver_SkipDiscardsNewContent(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("duplicate", "skip", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.5})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new"}, []ExistingMatch{
		{NodeID: 1, Content: "old", SimilarityScore: 0.9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome == nil || outcome.Recommendation != RecommendationSkip {
		t.Fatalf("expected skip outcome, got %+v", outcome)
	}
}

func TestResolver_ReplaceCarriesNewTextAndSource(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("supersedes", "replace", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.5})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "updated runbook", Source: "wiki"}, []ExistingMatch{
		{NodeID: 7, Content: "old runbook", Source: "wiki-old", SimilarityScore: 0.95},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Recommendation != RecommendationReplace || outcome.ExistingText != "updated runbook" || outcome.ExistingSource != "wiki" {
		t.Fatalf("unexpected replace outcome: %+v", outcome)
	}
}

func TestResolver_MergeFallsBackToConcatenationWithoutMergedContent(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("complements", "merge", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.5})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new part", Source: "docs"}, []ExistingMatch{
		{NodeID: 3, Content: "existing part", Source: "docs-old", SimilarityScore: 0.8},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Recommendation != RecommendationMerge {
		t.Fatalf("expected merge, got %+v", outcome)
	}
	if outcome.ExistingText != "existing part\n\nnew part" {
		t.Fatalf("expected concatenation fallback, got %q", outcome.ExistingText)
	}
	if outcome.ImportanceAdjustment.ExistingMultiplier != 0.8 {
		t.Fatalf("expected max of the two multipliers (0.8), got %v", outcome.ImportanceAdjustment.ExistingMultiplier)
	}
}

func TestResolver_AddAsNewRecordsCrossReference(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("unrelated", "add_as_new", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.5})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new"}, []ExistingMatch{
		{NodeID: 42, Content: "old", SimilarityScore: 0.6},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Recommendation != RecommendationAddAsNew || outcome.CrossReferenceNodeID != 42 {
		t.Fatalf("expected add_as_new cross-reference to node 42, got %+v", outcome)
	}
}

// failingLLM always errors, to exercise the LLM-failure fallback path.
type failingLLM struct{}

func (f *failingLLM) CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	return nil, errors.New("provider unavailable")
}

var _ llm.StructuredLLM = (*failingLLM)(nil)

func TestResolver_LLMFailureDefaultsToFlagReviewWithLowConfidence(t *testing.T) {
	r := NewResolver(&failingLLM{}, Config{SimilarityThreshold: 0.5, MaxRetries: 1})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new"}, []ExistingMatch{
		{NodeID: 9, Content: "old", SimilarityScore: 0.7},
	})
	if err != nil {
		t.Fatalf("expected Resolve to never throw on LLM failure, got %v", err)
	}
	if outcome.Recommendation != RecommendationFlagReview {
		t.Fatalf("expected flag_review fallback, got %+v", outcome)
	}
	if outcome.Resolution.Confidence >= 0.5 {
		t.Fatalf("expected low confidence fallback, got %v", outcome.Resolution.Confidence)
	}
}

func TestResolver_PicksHighestSimilarityMatchAmongSeveral(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: resolutionJSON("duplicate", "skip", "")}
	r := NewResolver(mock, Config{SimilarityThreshold: 0.1})

	outcome, err := r.Resolve(context.Background(), NewContent{Text: "new"}, []ExistingMatch{
		{NodeID: 1, Content: "a", SimilarityScore: 0.4, UpdatedAt: time.Now()},
		{NodeID: 2, Content: "b", SimilarityScore: 0.95, UpdatedAt: time.Now()},
		{NodeID: 3, Content: "c", SimilarityScore: 0.6, UpdatedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.MatchedNodeID != 2 {
		t.Fatalf("expected the highest-similarity match (node 2) to win, got node %d", outcome.MatchedNodeID)
	}
}
