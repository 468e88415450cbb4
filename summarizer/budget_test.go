package summarizer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/usagelog"
)

func TestBudgetGuard_AllowsCallsUnderBudget(t *testing.T) {
	inner := &countingSummarizer{response: "a brief summary"}
	g := NewBudgetGuard(inner, 1000.0, 0.01, fakeTokenCounter{})

	_, err := g.Summarize(context.Background(), "some source text", 50)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Greater(t, g.SpentUSD(), 0.0)
}

func TestBudgetGuard_FailsOnceBudgetExceeded(t *testing.T) {
	inner := &countingSummarizer{response: "a brief summary with several words in it"}
	// A tiny budget and a large per-1k-token rate so the very first call exhausts it.
	g := NewBudgetGuard(inner, 0.0001, 1000.0, fakeTokenCounter{})

	_, err := g.Summarize(context.Background(), "some source text", 50)
	require.NoError(t, err)

	_, err = g.Summarize(context.Background(), "more source text", 50)
	require.Error(t, err)
	assert.True(t, engineerr.IsKind(err, engineerr.KindBudgetExceeded))
	assert.Equal(t, 1, inner.calls, "budget-exceeded call must not reach the inner summarizer")
}

func TestBudgetGuard_WithUsageLogRecordsEachAllowedCall(t *testing.T) {
	inner := &countingSummarizer{response: "a brief summary"}
	g := NewBudgetGuard(inner, 1000.0, 0.01, fakeTokenCounter{})

	path := filepath.Join(t.TempDir(), "usage.jsonl")
	sink, err := usagelog.New(usagelog.Config{Path: path})
	require.NoError(t, err)
	defer sink.Close()
	g.WithUsageLog(sink)

	_, err = g.Summarize(context.Background(), "some source text", 50)
	require.NoError(t, err)
	_, err = g.Summarize(context.Background(), "more source text", 50)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestBudgetGuard_WithUsageLogEnforceBudgetFailsTheCall(t *testing.T) {
	inner := &countingSummarizer{response: "a brief summary with several words in it"}
	g := NewBudgetGuard(inner, 1000.0, 0.01, fakeTokenCounter{})

	path := filepath.Join(t.TempDir(), "usage.jsonl")
	sink, err := usagelog.New(usagelog.Config{Path: path, BudgetUSD: 0.0001, Enforce: true, CostPer1kUSD: 1000})
	require.NoError(t, err)
	defer sink.Close()
	g.WithUsageLog(sink)

	_, err = g.Summarize(context.Background(), "some source text", 50)
	require.Error(t, err)
	assert.True(t, engineerr.IsKind(err, engineerr.KindBudgetExceeded))
}
