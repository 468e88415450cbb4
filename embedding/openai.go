package embedding

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kgraptor/engine/engineerr"
)

// modelDimensions holds the known vector length for OpenAI's embedding
// models, since the API response doesn't echo it back.
var modelDimensions = map[openai.EmbeddingModel]int{
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	openai.AdaEmbeddingV2:  1536,
}

// OpenAIClient is an embedding Client backed by the OpenAI embeddings
// API.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
	logger *zap.Logger
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// WithDimensionality overrides the dimensionality reported for an
// unrecognized model name.
func WithDimensionality(dim int) Option {
	return func(c *OpenAIClient) {
		c.dim = dim
	}
}

// NewOpenAIClient creates a Client for the named embedding model. An
// empty apiKey falls back to the OPENAI_API_KEY environment variable,
// and an empty modelName defaults to text-embedding-3-small.
func NewOpenAIClient(apiKey, modelName string, opts ...Option) *OpenAIClient {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := openai.SmallEmbedding3
	if modelName != "" {
		model = openai.EmbeddingModel(modelName)
	}

	c := &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		dim:    modelDimensions[model],
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		c.logger.Error("embedding request failed", zap.Error(err), zap.Int("batch_size", len(texts)))
		return nil, engineerr.Wrap(engineerr.KindTransient, "openai embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, engineerr.New(engineerr.KindTransient, "openai returned a mismatched number of embeddings")
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = float32sToFloat64s(d.Embedding)
	}
	return vectors, nil
}

func (c *OpenAIClient) Dimensionality() int {
	return c.dim
}

func (c *OpenAIClient) ModelID() string {
	return string(c.model)
}

func float32sToFloat64s(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

var _ Client = (*OpenAIClient)(nil)
