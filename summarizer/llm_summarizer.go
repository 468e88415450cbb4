package summarizer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/llm"
	"github.com/kgraptor/engine/splitter"
	"github.com/kgraptor/engine/usagelog"
)

// LLMSummarizer implements Summarizer by calling an llm.LLM and enforcing
// the anti-copy guard and bullet formatting on its output, generalizing
// the teacher's SummaryExtractor.generateNodeSummary (which called
// llm.Complete with a fixed template and no post-validation) with the
// layer-aware modes and rewrite loop spec 4.3 requires.
type LLMSummarizer struct {
	llm         llm.LLM
	tokenizer   splitter.TokenCounter
	modelID     string
	logger      *zap.Logger
	maxRewrites int
	debug       *usagelog.DebugSink
}

// Option configures an LLMSummarizer.
type Option func(*LLMSummarizer)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *LLMSummarizer) { s.logger = logger }
}

// WithModelID overrides the model identifier used in cache keys;
// defaults to "llm-summarizer" when unset.
func WithModelID(modelID string) Option {
	return func(s *LLMSummarizer) { s.modelID = modelID }
}

// WithTokenCounter attaches a token counter used to detect truncated
// (finish-reason=length-equivalent) output, since the llm.LLM interface
// does not surface provider finish reasons; output whose token count
// meets or exceeds maxTokens is treated as truncated.
func WithTokenCounter(counter splitter.TokenCounter) Option {
	return func(s *LLMSummarizer) { s.tokenizer = counter }
}

// WithMaxRewrites caps how many rewrite calls the anti-copy/truncation
// guard issues per summarization; defaults to 1.
func WithMaxRewrites(n int) Option {
	return func(s *LLMSummarizer) {
		if n >= 0 {
			s.maxRewrites = n
		}
	}
}

// WithDebugLog wires the raw prompt/output reproducibility log (spec 6:
// summary_debug_log_path, debug_events): every anti-copy rewrite that
// enforceAbstraction issues is appended as a "guard" event when sink is
// configured to log it.
func WithDebugLog(sink *usagelog.DebugSink) Option {
	return func(s *LLMSummarizer) { s.debug = sink }
}

// NewLLMSummarizer creates an LLMSummarizer backed by l.
func NewLLMSummarizer(l llm.LLM, opts ...Option) *LLMSummarizer {
	s := &LLMSummarizer{
		llm:         l,
		modelID:     "llm-summarizer",
		logger:      zap.NewNop(),
		maxRewrites: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMSummarizer) Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error) {
	return s.SummarizeLayer(ctx, contextStr, LayerSummary, maxTokens)
}

func (s *LLMSummarizer) SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error) {
	prompt := buildPrompt(layer, contextStr)

	output, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	output, err = s.enforceAbstraction(ctx, contextStr, prompt, output, maxTokens)
	if err != nil {
		return "", err
	}

	if layer == LayerBullets {
		output, err = s.enforceBullets(ctx, prompt, output)
		if err != nil {
			return "", err
		}
	}

	return output, nil
}

func (s *LLMSummarizer) ModelID() string {
	return s.modelID
}

// enforceAbstraction issues rewrite calls while output copies too much
// of context verbatim or looks truncated, up to maxRewrites attempts.
func (s *LLMSummarizer) enforceAbstraction(ctx context.Context, contextStr, prompt, output string, maxTokens int) (string, error) {
	for attempt := 0; attempt < s.maxRewrites; attempt++ {
		truncated := s.looksTruncated(output, maxTokens)
		violated := ViolatesAntiCopyGuard(output, contextStr)
		if !truncated && !violated {
			return output, nil
		}

		var rewritePrompt string
		if truncated {
			s.logger.Info("summary output looks truncated, issuing compression rewrite", zap.Int("attempt", attempt))
			rewritePrompt = prompt + fmt.Sprintf(compressionSuffixTmpl, output)
		} else {
			s.logger.Info("summary output failed anti-copy guard, issuing rewrite", zap.Int("attempt", attempt))
			rewritePrompt = prompt + fmt.Sprintf(rewriteSuffixTmpl, output)
			s.debug.Log("guard", prompt, output, map[string]any{"attempt": attempt})
		}

		rewritten, err := s.generate(ctx, rewritePrompt)
		if err != nil {
			return "", err
		}
		output = rewritten
	}
	return output, nil
}

func (s *LLMSummarizer) enforceBullets(ctx context.Context, prompt, output string) (string, error) {
	if bulletsValid(output) {
		return output, nil
	}
	rewritten, err := s.generate(ctx, prompt+output+bulletRewriteSuffix)
	if err != nil {
		return "", err
	}
	return rewritten, nil
}

func (s *LLMSummarizer) looksTruncated(output string, maxTokens int) bool {
	if s.tokenizer == nil || maxTokens <= 0 {
		return false
	}
	return s.tokenizer.CountTokens(output) >= maxTokens
}

func (s *LLMSummarizer) generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", engineerr.Wrap(engineerr.KindTransient, "summarizer completion failed", err)
	}
	return strings.TrimSpace(text), nil
}

var _ Summarizer = (*LLMSummarizer)(nil)
