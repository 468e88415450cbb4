package keywords

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/kgraptor/engine/embedding"
)

// source weights for combining the hybrid pipeline's signals (spec 4.4:
// "TF-IDF weight, appearance in headings, in-text frequency, phrase-
// length preference, hierarchical consistency bonus").
const (
	weightTFIDF   = 0.4
	weightLLM     = 0.4
	weightEntity  = 0.2
	headingBonus  = 0.15
	phraseBonus   = 0.1
	semanticDelta = 0.05
)

// HybridExtractor combines an LLM keyword source, TF-IDF over a
// sibling corpus, and regex entity extraction into the scored,
// optionally semantically-expanded keyword list spec 4.4 describes.
type HybridExtractor struct {
	llmSource *LLMKeywordSource
	entities  *EntityExtractor
	embedder  embedding.Client

	maxKeywords       int
	semanticThreshold float64
	tfidfOpts         []TFIDFOption
}

// HybridOption configures a HybridExtractor.
type HybridOption func(*HybridExtractor)

// WithEmbedder enables semantic expansion: candidate terms are embedded
// and plural/singular variants discovered in the text via cosine
// similarity above the threshold are added.
func WithEmbedder(client embedding.Client, similarityThreshold float64) HybridOption {
	return func(h *HybridExtractor) {
		h.embedder = client
		h.semanticThreshold = similarityThreshold
	}
}

// WithTFIDFOptions forwards extra options to the internal TFIDF source.
func WithTFIDFOptions(opts ...TFIDFOption) HybridOption {
	return func(h *HybridExtractor) { h.tfidfOpts = opts }
}

// NewHybridExtractor creates a HybridExtractor producing up to 12 terms
// per call; maxKeywords bounds the LLM request and sets the TF-IDF
// feature count (2*maxKeywords), not the size of the combined result.
func NewHybridExtractor(llmSource *LLMKeywordSource, entities *EntityExtractor, maxKeywords int, opts ...HybridOption) *HybridExtractor {
	h := &HybridExtractor{
		llmSource:   llmSource,
		entities:    entities,
		maxKeywords: maxKeywords,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Extract runs the full hybrid pipeline over text, using corpus (e.g.
// sibling leaf-node texts) for TF-IDF document-frequency weighting and
// headings (e.g. markdown heading text encountered during splitting)
// for the heading-appearance bonus.
func (h *HybridExtractor) Extract(ctx context.Context, text string, corpus []string, headings []string) ([]ScoredKeyword, error) {
	combined := make(map[string]*ScoredKeyword)

	merge := func(candidates []ScoredKeyword, weight float64) {
		for _, c := range candidates {
			if existing, ok := combined[c.Term]; ok {
				existing.Score += c.Score * weight
				existing.Sources = append(existing.Sources, c.Sources...)
			} else {
				combined[c.Term] = &ScoredKeyword{Term: c.Term, Score: c.Score * weight, Sources: append([]string{}, c.Sources...)}
			}
		}
	}

	tfidf := NewTFIDF(h.maxKeywords, h.tfidfOpts...)
	merge(tfidf.Extract(text, corpus), weightTFIDF)

	if h.llmSource != nil {
		llmTerms, err := h.llmSource.Extract(ctx, text, h.maxKeywords)
		if err != nil {
			return nil, err
		}
		merge(llmTerms, weightLLM)
	}

	if h.entities != nil {
		merge(h.entities.Extract(text), weightEntity)
	}

	headingSet := make(map[string]struct{}, len(headings))
	for _, heading := range headings {
		headingSet[Normalize(heading)] = struct{}{}
	}

	lowerText := strings.ToLower(text)
	for term, c := range combined {
		if _, inHeading := headingSet[term]; inHeading {
			c.Score += headingBonus
		}

		wordCount := len(strings.Fields(term))
		if wordCount == 2 || wordCount == 3 {
			c.Score += phraseBonus
		}

		freq := strings.Count(lowerText, term)
		if freq > 1 {
			c.Score += math.Log(float64(freq)) * 0.02
		}
	}

	if h.embedder != nil {
		if err := h.expandSemantic(ctx, combined, text); err != nil {
			return nil, err
		}
	}

	out := make([]ScoredKeyword, 0, len(combined))
	for _, c := range combined {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > maxKeywordsPerNode {
		out = out[:maxKeywordsPerNode]
	}
	return out, nil
}

// expandSemantic embeds current candidates and checks the text for
// plural/singular variants whose embedding similarity meets the
// configured threshold, adding any that are found (spec 4.4 step 4).
func (h *HybridExtractor) expandSemantic(ctx context.Context, combined map[string]*ScoredKeyword, text string) error {
	for term, c := range combined {
		variant := variantForm(term)
		if variant == "" || !strings.Contains(strings.ToLower(text), variant) {
			continue
		}
		if _, exists := combined[variant]; exists {
			continue
		}

		baseVec, err := h.embedder.Embed(ctx, term)
		if err != nil {
			return err
		}
		variantVec, err := h.embedder.Embed(ctx, variant)
		if err != nil {
			return err
		}
		sim, err := embedding.CosineSimilarity(baseVec, variantVec)
		if err != nil {
			return err
		}
		if sim >= h.semanticThreshold {
			combined[variant] = &ScoredKeyword{Term: variant, Score: c.Score - semanticDelta, Sources: []string{"semantic_expansion"}}
		}
	}
	return nil
}

// variantForm returns a naive plural/singular counterpart of term: a
// trailing "s" is stripped, or appended if absent. Multi-word terms are
// left unexpanded.
func variantForm(term string) string {
	if strings.Contains(term, " ") {
		return ""
	}
	if strings.HasSuffix(term, "s") && len(term) > 3 {
		return strings.TrimSuffix(term, "s")
	}
	return term + "s"
}
