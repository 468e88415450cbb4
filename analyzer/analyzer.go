package analyzer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kgraptor/engine/llm"
)

// Config configures an Analyzer.
type Config struct {
	Mode Mode
	// MaxRetries bounds how many times a failed structured call is
	// retried before Analyze falls back to minimalResult (spec 4.10:
	// "on N retry failures, return a minimal result ... never throw").
	MaxRetries uint64
	// MaxConcurrent bounds how many chunks AnalyzeBatch judges at once
	// (spec 5: "Content-analysis batching: bounded semaphore
	// (max_concurrent)").
	MaxConcurrent int64
}

func (c Config) mode() Mode {
	if c.Mode == "" {
		return ModeSingleCall
	}
	return c.Mode
}

func (c Config) maxRetries() uint64 {
	if c.MaxRetries == 0 {
		return 2
	}
	return c.MaxRetries
}

func (c Config) maxConcurrent() int64 {
	if c.MaxConcurrent > 0 {
		return c.MaxConcurrent
	}
	return 4
}

// Analyzer produces a structured Result for a Chunk via an LLM's
// structured-output capability, generalizing the teacher's
// extractors.LLMExtractor (extractors/types.go) from per-node metadata
// dictionaries into the spec's single coherent analysis shape.
type Analyzer struct {
	llm    llm.StructuredLLM
	cfg    Config
	logger *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// NewAnalyzer creates an Analyzer backed by structured.
func NewAnalyzer(structured llm.StructuredLLM, cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{llm: structured, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze judges chunk, dispatching to the configured mode. It never
// returns an error for LLM failure — after exhausting retries it falls
// back to a minimal result — but does propagate ctx cancellation, since
// that is the caller stopping the work, not the LLM failing it.
func (a *Analyzer) Analyze(ctx context.Context, chunk Chunk) (*Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var result *Result
	var err error
	if a.cfg.mode() == ModeStepwise {
		result, err = a.analyzeStepwise(ctx, chunk)
	} else {
		result, err = a.analyzeSingleCall(ctx, chunk)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("content analysis fell back to minimal result", zap.Error(err))
		return minimalResult(), nil
	}
	return result, nil
}

// AnalyzeBatch runs Analyze over chunks under a bounded semaphore (spec
// 5: "Content-analysis batching: bounded semaphore (max_concurrent)"),
// generalizing the teacher's channel-based runConcurrent helper
// (extractors/types.go) into a golang.org/x/sync/semaphore gate. Results
// are returned in the same order as chunks; a per-chunk failure still
// yields a minimal result there rather than aborting the batch, the
// same guarantee Analyze itself makes. The only error AnalyzeBatch
// returns is ctx cancellation.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, chunks []Chunk) ([]*Result, error) {
	results := make([]*Result, len(chunks))
	sem := semaphore.NewWeighted(a.cfg.maxConcurrent())

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(idx int, c Chunk) {
			defer wg.Done()
			defer sem.Release(1)
			// Analyze never returns an error except for ctx cancellation,
			// which results[idx] staying nil already signals to the caller.
			result, err := a.Analyze(ctx, c)
			if err == nil {
				results[idx] = result
			}
		}(i, chunk)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

// callStructured issues one structured LLM call for schemaName/schema,
// retrying up to cfg.maxRetries times on failure (transient provider
// errors or malformed JSON), and decodes the result into out.
func (a *Analyzer) callStructured(ctx context.Context, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), a.cfg.maxRetries()), ctx)

	return backoff.Retry(func() error {
		raw, err := a.llm.CompleteStructured(ctx, prompt, schemaName, schema)
		if err != nil {
			return err
		}
		return decodeStructured(raw, out)
	}, policy)
}

// decodeStructured unmarshals raw into out, stripping a wrapping
// markdown code fence first if present — the same defensive posture the
// teacher's outputparser.JSONOutputParser.extractJSON takes toward LLM
// output that nominally requested structured JSON but came back fenced.
func decodeStructured(raw json.RawMessage, out interface{}) error {
	return json.Unmarshal(extractJSONObject(raw), out)
}
