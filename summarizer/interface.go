// Package summarizer implements the Summarizer capability (spec 4.3/6):
// layer-aware abstractive summarization with an anti-copy guard, bullet
// enforcement, a persistent cache, and a cost/budget guard, generalizing
// the teacher's SummaryExtractor (extractors/summary.go) from a fixed
// "section_summary" metadata field into a pluggable, cacheable capability
// consumed by the tree builder and incremental engine.
package summarizer

import "context"

// Layer selects the summarization mode used by SummarizeLayer, matching
// the tree builder's per-layer summarization length/style choices.
type Layer string

const (
	// LayerDetails asks for a detail-preserving summary, used for the
	// first parent layer directly above leaf nodes.
	LayerDetails Layer = "details"
	// LayerSummary asks for a general abstractive summary.
	LayerSummary Layer = "summary"
	// LayerBullets asks for a bulleted list summary; output lines must
	// start with "- " or a rewrite is requested.
	LayerBullets Layer = "bullets"
	// LayerKeywords asks for a keyword/topic summary.
	LayerKeywords Layer = "keywords"
)

// Summarizer produces abstractive summaries of a context string within a
// token budget.
type Summarizer interface {
	// Summarize is shorthand for SummarizeLayer(ctx, context, LayerSummary, maxTokens).
	Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error)

	// SummarizeLayer produces a summary in the style selected by layer.
	SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error)

	// ModelID identifies the underlying model, used as part of the cache key.
	ModelID() string
}
