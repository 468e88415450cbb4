package embedding

import "context"

// MockClient is a deterministic embedding Client for tests: it returns
// a fixed vector, a caller-supplied function, or an error.
type MockClient struct {
	Vector []float64
	Fn     func(text string) []float64
	Err    error
	Model  string
	Dim    int
}

// NewMockClient creates a MockClient that always returns vector.
func NewMockClient(vector []float64) *MockClient {
	return &MockClient{Vector: vector, Model: "mock-embedding", Dim: len(vector)}
}

func (m *MockClient) Embed(_ context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Fn != nil {
		return m.Fn(text), nil
	}
	return m.Vector, nil
}

func (m *MockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockClient) Dimensionality() int {
	if m.Dim != 0 {
		return m.Dim
	}
	return len(m.Vector)
}

func (m *MockClient) ModelID() string {
	if m.Model != "" {
		return m.Model
	}
	return "mock-embedding"
}

var _ Client = (*MockClient)(nil)
