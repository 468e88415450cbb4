package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSummarizer(t *testing.T) {
	m := NewMockSummarizer("canned")

	out, err := m.Summarize(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
	assert.Equal(t, "mock-summarizer", m.ModelID())
}

func TestMockSummarizer_Error(t *testing.T) {
	m := &MockSummarizer{Err: assert.AnError}

	_, err := m.Summarize(context.Background(), "anything", 10)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSummarizerInterfaceCompliance(t *testing.T) {
	var _ Summarizer = (*LLMSummarizer)(nil)
	var _ Summarizer = (*CachedSummarizer)(nil)
	var _ Summarizer = (*BudgetGuard)(nil)
	var _ Summarizer = (*MockSummarizer)(nil)
}
