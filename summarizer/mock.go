package summarizer

import "context"

// MockSummarizer is a test double returning a canned response or error.
type MockSummarizer struct {
	Response string
	Err      error
	Model    string
}

// NewMockSummarizer creates a MockSummarizer returning response.
func NewMockSummarizer(response string) *MockSummarizer {
	return &MockSummarizer{Response: response}
}

func (m *MockSummarizer) Summarize(ctx context.Context, contextStr string, maxTokens int) (string, error) {
	return m.SummarizeLayer(ctx, contextStr, LayerSummary, maxTokens)
}

func (m *MockSummarizer) SummarizeLayer(ctx context.Context, contextStr string, layer Layer, maxTokens int) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockSummarizer) ModelID() string {
	if m.Model == "" {
		return "mock-summarizer"
	}
	return m.Model
}

var _ Summarizer = (*MockSummarizer)(nil)
