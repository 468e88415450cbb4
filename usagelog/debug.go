package usagelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kgraptor/engine/config"
)

// DebugRecord is one raw prompt/output reproducibility entry.
type DebugRecord struct {
	Timestamp time.Time      `json:"ts"`
	Event     string         `json:"event"`
	Meta      map[string]any `json:"meta,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	Output    string         `json:"output,omitempty"`
}

// DebugSink is the raw prompt/output reproducibility log spec 6 names
// (`summary_debug_log_path`, `debug_events`), grounded on
// SummarizationModels.py's _debug_log/_debug_enabled_for: enabled only
// when a path is configured, and further gated per-call by an
// allowlist of event names (or the literal "all"). A nil *DebugSink is
// valid and every method is a no-op.
type DebugSink struct {
	mu      sync.Mutex
	f       *os.File
	enc     *json.Encoder
	allowed map[string]bool
	allEvts bool
}

// NewDebugSink opens path and restricts logging to events, the same
// comma-separated allowlist shape as RAPTOR_SUMMARY_DEBUG_EVENTS
// ("guard" by default upstream; "all" enables every event). An empty
// path returns (nil, nil): debug logging disabled.
func NewDebugSink(path string, events []string) (*DebugSink, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(events))
	allEvts := false
	for _, e := range events {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if e == "all" {
			allEvts = true
		}
		allowed[e] = true
	}
	if len(allowed) == 0 {
		allowed["guard"] = true
	}

	return &DebugSink{f: f, enc: json.NewEncoder(f), allowed: allowed, allEvts: allEvts}, nil
}

// DebugSinkFromConfig builds a DebugSink directly from the engine's
// Observability settings.
func DebugSinkFromConfig(cfg config.ObservabilityConfig) (*DebugSink, error) {
	return NewDebugSink(cfg.SummaryDebugLogPath, cfg.DebugEvents)
}

// Enabled reports whether event is configured to be logged. Always
// false on a nil DebugSink.
func (d *DebugSink) Enabled(event string) bool {
	if d == nil {
		return false
	}
	event = strings.ToLower(strings.TrimSpace(event))
	return d.allEvts || d.allowed[event]
}

// Log appends a DebugRecord for event if Enabled, otherwise it's a
// no-op. Safe to call on a nil DebugSink.
func (d *DebugSink) Log(event, prompt, output string, meta map[string]any) {
	if !d.Enabled(event) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.enc.Encode(DebugRecord{Timestamp: time.Now(), Event: event, Meta: meta, Prompt: prompt, Output: output})
}

// Close releases the underlying file handle. Safe to call on a nil
// DebugSink.
func (d *DebugSink) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
