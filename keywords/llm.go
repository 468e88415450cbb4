package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kgraptor/engine/llm"
)

// llmKeywordSchemaName is passed to StructuredLLM.CompleteStructured so
// providers with native JSON-schema modes can enforce it server-side.
const llmKeywordSchemaName = "KeywordExtractionResult"

var llmKeywordSchema = map[string]interface{}{
	"type":  "object",
	"title": llmKeywordSchemaName,
	"properties": map[string]interface{}{
		"keywords": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required": []string{"keywords"},
}

// keywordFallbackPattern extracts quoted substrings or bare word tokens
// from a malformed response as a last resort when json.Unmarshal fails.
var keywordFallbackPattern = regexp.MustCompile(`"([^"]{2,60})"|([A-Za-z][A-Za-z0-9_-]{1,40})`)

// LLMKeywordSource asks an LLM for the top keywords of a context string,
// generalizing the teacher's KeywordsExtractor (extractors/keywords.go,
// a comma-separated Complete call) into the spec's strict-JSON call with
// a regex defensive-parsing fallback (spec 4.4 step 1).
type LLMKeywordSource struct {
	structured llm.StructuredLLM
	fallback   llm.LLM
	logger     *zap.Logger
}

// LLMKeywordOption configures an LLMKeywordSource.
type LLMKeywordOption func(*LLMKeywordSource)

// WithLLMKeywordLogger attaches a structured logger.
func WithLLMKeywordLogger(logger *zap.Logger) LLMKeywordOption {
	return func(s *LLMKeywordSource) { s.logger = logger }
}

// NewLLMKeywordSource creates an LLMKeywordSource. l must implement at
// least llm.LLM; if it also implements llm.StructuredLLM, the structured
// call path is used and only falls back to free-text parsing when the
// model still returns malformed JSON.
func NewLLMKeywordSource(l llm.LLM, opts ...LLMKeywordOption) *LLMKeywordSource {
	s := &LLMKeywordSource{fallback: l, logger: zap.NewNop()}
	if structured, ok := l.(llm.StructuredLLM); ok {
		s.structured = structured
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns up to maxKeywords keyword candidates for context.
func (s *LLMKeywordSource) Extract(ctx context.Context, contextStr string, maxKeywords int) ([]ScoredKeyword, error) {
	prompt := fmt.Sprintf(
		"Here is the content of a section:\n\n%s\n\nGive up to %d unique keywords or short key phrases that characterize this section.",
		contextStr, maxKeywords,
	)

	var terms []string
	var err error
	if s.structured != nil {
		terms, err = s.extractStructured(ctx, prompt)
		if err != nil {
			s.logger.Warn("structured keyword call failed, falling back to free text", zap.Error(err))
		}
	}
	if terms == nil {
		terms, err = s.extractFreeText(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}

	out := make([]ScoredKeyword, 0, len(terms))
	seen := make(map[string]struct{})
	rank := len(terms)
	for _, term := range terms {
		norm := Normalize(term)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		// Earlier terms in the model's list score higher.
		score := float64(rank) / float64(len(terms))
		rank--
		out = append(out, ScoredKeyword{Term: norm, Score: score, Sources: []string{"llm"}})
		if len(out) >= maxKeywords {
			break
		}
	}
	return out, nil
}

func (s *LLMKeywordSource) extractStructured(ctx context.Context, prompt string) ([]string, error) {
	raw, err := s.structured.CompleteStructured(ctx, prompt, llmKeywordSchemaName, llmKeywordSchema)
	if err != nil {
		return nil, err
	}

	var result struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return s.parseFallback(string(raw)), nil
	}
	if len(result.Keywords) == 0 {
		return s.parseFallback(string(raw)), nil
	}
	return result.Keywords, nil
}

func (s *LLMKeywordSource) extractFreeText(ctx context.Context, prompt string) ([]string, error) {
	text, err := s.fallback.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.parseFallback(text), nil
}

// parseFallback recovers a keyword list from non-JSON or malformed
// output: quoted substrings are the strongest signal of intended
// keyword boundaries and take priority, then a plain comma split, then
// bare word-token regex matching as a last resort.
func (s *LLMKeywordSource) parseFallback(text string) []string {
	var quoted []string
	for _, m := range keywordFallbackPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			quoted = append(quoted, m[1])
		}
	}
	if len(quoted) > 0 {
		return quoted
	}

	var terms []string
	for _, part := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" && len(trimmed) <= 60 {
			terms = append(terms, trimmed)
		}
	}
	if len(terms) > 1 {
		return terms
	}

	for _, m := range keywordFallbackPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			terms = append(terms, m[2])
		}
	}
	return terms
}
