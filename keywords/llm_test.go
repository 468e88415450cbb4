package keywords

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kgraptor/engine/llm"
)

// plainLLM implements only llm.LLM, forcing the free-text fallback path.
type plainLLM struct {
	response string
}

func (p *plainLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return p.response, nil
}
func (p *plainLLM) Chat(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	return p.response, nil
}
func (p *plainLLM) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- p.response
	close(ch)
	return ch, nil
}

var _ llm.LLM = (*plainLLM)(nil)

func TestLLMKeywordSource_StructuredPath(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{"keywords": []string{"revenue growth", "cloud division", "revenue growth"}})
	mock := &llm.MockLLM{StructuredJSON: raw}
	s := NewLLMKeywordSource(mock)

	results, err := s.Extract(context.Background(), "quarterly revenue growth in the cloud division", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected dedup to 2 terms, got %+v", results)
	}
}

func TestLLMKeywordSource_FreeTextFallback(t *testing.T) {
	p := &plainLLM{response: "revenue growth, cloud division, quarterly report"}
	s := NewLLMKeywordSource(p)

	results, err := s.Extract(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 comma-separated terms, got %+v", results)
	}
}

func TestLLMKeywordSource_MalformedStructuredFallsBackToParsing(t *testing.T) {
	mock := &llm.MockLLM{StructuredJSON: json.RawMessage(`not json at all, but "quoted term" survives`)}
	s := NewLLMKeywordSource(mock)

	results, err := s.Extract(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, r := range results {
		if r.Term == "quoted term" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected regex fallback to recover the quoted term, got %+v", results)
	}
}
