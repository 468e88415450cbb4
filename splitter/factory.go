package splitter

import (
	"fmt"

	"github.com/kgraptor/engine/config"
)

// New builds the configured TextSplitter (spec 4.1). The embedding mode
// requires an Embedder; it is ignored for the other modes.
func New(cfg config.SplitterConfig, tokenizer Tokenizer, embedder Embedder) (TextSplitter, error) {
	if tokenizer == nil {
		tokenizer = NewSimpleTokenizer()
	}

	switch cfg.Mode {
	case "", config.SplitterModeFixed:
		return NewSentenceSplitter(cfg.MaxTokens, cfg.Overlap, tokenizer, nil), nil
	case config.SplitterModeMarkdown:
		return NewMarkdownSplitter(cfg.MaxTokens, cfg.Overlap).WithTokenizer(tokenizer), nil
	case config.SplitterModeEmbedding:
		if embedder == nil {
			return nil, fmt.Errorf("splitter: embedding mode requires an embedder")
		}
		sem := NewSemanticSplitter(embedder, cfg.MaxTokens, cfg.SemanticThreshold)
		sem.Tokenizer = tokenizer
		if cfg.MinChunkTokens > 0 {
			sem.MinChunkTokens = cfg.MinChunkTokens
		}
		return sem, nil
	default:
		return nil, fmt.Errorf("splitter: unknown mode %q", cfg.Mode)
	}
}
