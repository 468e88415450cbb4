package llm

import (
	"context"
	"encoding/json"
)

// MockLLM is a deterministic FullLLM for tests: it returns a fixed
// response, a fixed structured payload, or an error.
type MockLLM struct {
	Response       string
	StructuredJSON json.RawMessage
	Err            error
	ModelMetadata  *LLMMetadata
}

// NewMockLLM creates a MockLLM with a simple text response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a MockLLM that always errors.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Err: err}
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}

func (m *MockLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return m.Response, m.Err
}

func (m *MockLLM) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	ch := make(chan string, 1)
	if m.Err != nil {
		close(ch)
		return ch, m.Err
	}
	ch <- m.Response
	close(ch)
	return ch, nil
}

func (m *MockLLM) CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.StructuredJSON != nil {
		return m.StructuredJSON, nil
	}
	return json.RawMessage(m.Response), nil
}

// Metadata returns the mock model metadata.
func (m *MockLLM) Metadata() LLMMetadata {
	if m.ModelMetadata != nil {
		return *m.ModelMetadata
	}
	return DefaultLLMMetadata("mock-model")
}

var (
	_ LLM           = (*MockLLM)(nil)
	_ StructuredLLM = (*MockLLM)(nil)
	_ FullLLM       = (*MockLLM)(nil)
)
