// Package usagelog implements the best-effort, JSONL-per-call usage
// logger and optional budget guard spec section 6 names
// (`usage_log_path`, `enforce_budget`), grounded on
// original_source/ultimate_rag/raptor_lib/usage_log.py's log_usage: a
// process-wide append-only log of every LLM/embedder/summarizer call,
// plus an accumulating USD-cost counter that fails loudly only when
// enforcement is switched on.
package usagelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kgraptor/engine/config"
	"github.com/kgraptor/engine/engineerr"
)

// Record is one logged call.
type Record struct {
	Timestamp        time.Time      `json:"ts"`
	Kind             string         `json:"kind"`
	Model            string         `json:"model"`
	DurationSeconds  float64        `json:"duration_s,omitempty"`
	PromptTokens     int            `json:"prompt_tokens,omitempty"`
	CompletionTokens int            `json:"completion_tokens,omitempty"`
	TotalTokens      int            `json:"total_tokens,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
}

// Sink appends Records to a JSONL file and, when enforcement is on,
// tracks an accumulating estimated USD spend against a budget ceiling.
// A nil *Sink is valid and every method on it is a no-op, mirroring
// log_usage's own "enabled only when the path is set" posture so
// callers never need a separate nil check before logging.
type Sink struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder

	budgetUSD    float64
	enforce      bool
	costPer1kUSD float64
	spentUSD     float64
}

// Config configures a Sink from the engine's Observability settings
// (spec 6: usage_log_path, enforce_budget).
type Config struct {
	// Path is the JSONL file to append to. An empty Path means logging
	// is disabled — New returns a nil *Sink, not an error.
	Path string
	// BudgetUSD is the spend ceiling once Enforce is true; zero means no
	// ceiling even if Enforce is set.
	BudgetUSD float64
	// Enforce causes Record's cost estimate to push the running total
	// toward BudgetUSD and fail once it exceeds it (spec 7: "budget
	// exceeded ... fatal to the in-flight build").
	Enforce bool
	// CostPer1kUSD estimates a call's cost from (prompt+completion)
	// tokens when Enforce is set.
	CostPer1kUSD float64
}

// New opens (creating if needed) the JSONL file at cfg.Path and returns
// a Sink backed by it. An empty cfg.Path returns (nil, nil): a
// disabled, always-safe-to-call sink rather than an error, matching
// usage_log.py's "enabled only when env var is set" behavior.
func New(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Sink{
		f:            f,
		enc:          json.NewEncoder(f),
		budgetUSD:    cfg.BudgetUSD,
		enforce:      cfg.Enforce,
		costPer1kUSD: cfg.CostPer1kUSD,
	}, nil
}

// UsageSinkFromConfig builds a Sink directly from the engine's
// Observability settings (spec 6: usage_log_path, enforce_budget),
// sparing callers from restating UsageLogPath/EnforceBudget as a
// separate usagelog.Config. costPer1kUSD estimates a call's cost from
// token counts once enforcement is on; it has no analogue in
// ObservabilityConfig since the original locates it in a sibling
// costing module, not the usage log itself.
func UsageSinkFromConfig(cfg config.ObservabilityConfig, budgetUSD, costPer1kUSD float64) (*Sink, error) {
	return New(Config{
		Path:         cfg.UsageLogPath,
		BudgetUSD:    budgetUSD,
		Enforce:      cfg.EnforceBudget,
		CostPer1kUSD: costPer1kUSD,
	})
}

// Close releases the underlying file handle. Safe to call on a nil Sink.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// SpentUSD returns the accumulated estimated spend so far. Zero on a
// nil Sink.
func (s *Sink) SpentUSD() float64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spentUSD
}

// Record appends rec to the log and, when budget enforcement is on,
// folds its token counts into the running spend estimate. It returns a
// engineerr.KindBudgetExceeded error only when enforcement pushed the
// total over the ceiling — the same "best-effort unless enforce_budget"
// split the Python original makes, and only for the budget check: a
// write failure is swallowed rather than raised, since a usage log must
// never fail the call it's describing.
func (s *Sink) Record(rec Record) error {
	if s == nil {
		return nil
	}
	rec.Timestamp = time.Now()

	s.mu.Lock()
	_ = s.enc.Encode(rec)
	var exceeded bool
	if s.enforce && s.budgetUSD > 0 {
		cost := float64(rec.PromptTokens+rec.CompletionTokens) / 1000 * s.costPer1kUSD
		s.spentUSD += cost
		exceeded = s.spentUSD > s.budgetUSD
	}
	s.mu.Unlock()

	if exceeded {
		return engineerr.New(engineerr.KindBudgetExceeded, "usage log budget exceeded")
	}
	return nil
}
