package summarizer

import (
	"context"
	"sync"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/splitter"
	"github.com/kgraptor/engine/usagelog"
)

// BudgetGuard wraps a Summarizer with a per-build USD cost ceiling
// (spec 4.3/5): a mutex-protected accumulator estimates cost from token
// counts times a per-1k-token rate, and once the accumulated spend
// reaches the limit every subsequent call fails with
// engineerr.KindBudgetExceeded so the caller can abort the in-flight
// build instead of continuing to spend.
type BudgetGuard struct {
	inner     Summarizer
	tokenizer splitter.TokenCounter
	costPer1k float64
	limitUSD  float64
	usage     *usagelog.Sink

	mu       sync.Mutex
	spentUSD float64
	exceeded bool
}

// NewBudgetGuard wraps inner with a budget of limitUSD, estimating cost
// at costPer1kTokens USD per 1000 tokens of (context + output).
func NewBudgetGuard(inner Summarizer, limitUSD, costPer1kTokens float64, tokenizer splitter.TokenCounter) *BudgetGuard {
	return &BudgetGuard{
		inner:     inner,
		tokenizer: tokenizer,
		costPer1k: costPer1kTokens,
		limitUSD:  limitUSD,
	}
}

// WithUsageLog wires a usagelog.Sink (spec 6: usage_log_path,
// enforce_budget) so every summarization this guard allows through is
// also appended to the process-wide usage log; when the sink's own
// enforce_budget is set, a sink-reported overage fails the call the
// same way the guard's own limitUSD does. A nil sink disables logging,
// the guard's existing limitUSD enforcement is unaffected either way.
func (g *BudgetGuard) WithUsageLog(sink *usagelog.Sink) *BudgetGuard {
	g.usage = sink
	return g
}

func (g *BudgetGuard) Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error) {
	return g.SummarizeLayer(ctx, contextStr, LayerSummary, maxTokens)
}

func (g *BudgetGuard) SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error) {
	if err := g.checkBudget(); err != nil {
		return "", err
	}

	output, err := g.inner.SummarizeLayer(ctx, contextStr, layer, maxTokens)
	if err != nil {
		return "", err
	}

	g.record(contextStr, output)
	if err := g.logUsage(contextStr, output, layer); err != nil {
		return "", err
	}
	return output, nil
}

func (g *BudgetGuard) ModelID() string {
	return g.inner.ModelID()
}

// SpentUSD returns the accumulated estimated spend so far.
func (g *BudgetGuard) SpentUSD() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spentUSD
}

func (g *BudgetGuard) checkBudget() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exceeded {
		return engineerr.New(engineerr.KindBudgetExceeded, "summarization budget already exceeded")
	}
	return nil
}

func (g *BudgetGuard) record(contextStr, output string) {
	tokens := g.tokenizer.CountTokens(contextStr) + g.tokenizer.CountTokens(output)
	cost := float64(tokens) / 1000 * g.costPer1k

	g.mu.Lock()
	defer g.mu.Unlock()
	g.spentUSD += cost
	if g.spentUSD >= g.limitUSD {
		g.exceeded = true
	}
}

// logUsage reports one completed call to the wired usage log, if any,
// returning its budget-exceeded error (if enforce_budget is on and this
// call pushed the sink's own running total over its ceiling) so the
// caller fails the same way it would against the guard's own limitUSD.
func (g *BudgetGuard) logUsage(contextStr, output string, layer Layer) error {
	if g.usage == nil {
		return nil
	}
	promptTokens := g.tokenizer.CountTokens(contextStr)
	completionTokens := g.tokenizer.CountTokens(output)
	return g.usage.Record(usagelog.Record{
		Kind:             "summarize_" + string(layer),
		Model:            g.inner.ModelID(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	})
}

var _ Summarizer = (*BudgetGuard)(nil)
