// Package keywords implements the Keyword Extractor (spec 4.4): a hybrid
// LLM + TF-IDF + regex-entity pipeline with hierarchical propagation,
// generalizing the teacher's KeywordsExtractor
// (extractors/keywords.go) — which only ran a single comma-separated
// LLM call — into the multi-signal, scored pipeline the tree builder
// needs.
package keywords

import "strings"

// ScoredKeyword is a candidate keyword together with its combined score
// and the signal(s) that contributed to it.
type ScoredKeyword struct {
	Term    string
	Score   float64
	Sources []string
}

// Normalize canonicalizes a keyword for deduplication and comparison:
// lowercased, trimmed, internal whitespace collapsed to single spaces,
// and stripped of leading/trailing punctuation. It is idempotent:
// Normalize(Normalize(kw)) == Normalize(kw) for all kw.
func Normalize(kw string) string {
	lowered := strings.ToLower(kw)
	fields := strings.Fields(lowered)
	joined := strings.Join(fields, " ")
	return strings.Trim(joined, ".,;:!?'\"()[]{}-_")
}

const maxKeywordsPerNode = 12
