package llm

import (
	"context"
	"encoding/json"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kgraptor/engine/engineerr"
)

const OpenAIAPIURLv1 = "https://api.openai.com/v1"

// OpenAILLM is a FullLLM backed by OpenAI's chat completions API.
type OpenAILLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// OpenAIOption configures an OpenAILLM.
type OpenAIOption func(*OpenAILLM)

// WithOpenAILogger attaches a structured logger.
func WithOpenAILogger(logger *zap.Logger) OpenAIOption {
	return func(o *OpenAILLM) {
		o.logger = logger
	}
}

// NewOpenAILLM creates an OpenAILLM. An empty apiKey falls back to
// OPENAI_API_KEY, an empty baseURL to OPENAI_URL or the public API, and
// an empty model to gpt-3.5-turbo.
func NewOpenAILLM(baseURL, model, apiKey string, opts ...OpenAIOption) *OpenAILLM {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_URL")
		if baseURL == "" {
			baseURL = OpenAIAPIURLv1
		}
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	o := &OpenAILLM{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewOpenAILLMWithClient wraps an already-configured openai.Client.
func NewOpenAILLMWithClient(client *openai.Client, model string, opts ...OpenAIOption) *OpenAILLM {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	o := &OpenAILLM{client: client, model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	return o.Chat(ctx, []ChatMessage{NewUserMessage(prompt)})
}

func (o *OpenAILLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		o.logger.Error("chat completion failed", zap.Error(err), zap.String("model", o.model))
		return "", engineerr.Wrap(engineerr.KindTransient, "openai chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", engineerr.New(engineerr.KindTransient, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStructured asks the model for output conforming to schema
// using OpenAI's json_schema response format, and returns the raw JSON
// payload for the caller to unmarshal against its own Go type.
func (o *OpenAILLM) CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindMalformedOutput, "failed to marshal schema", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	})
	if err != nil {
		o.logger.Error("structured completion failed", zap.Error(err), zap.String("model", o.model), zap.String("schema", schemaName))
		return nil, engineerr.Wrap(engineerr.KindTransient, "openai structured completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, engineerr.New(engineerr.KindMalformedOutput, "openai returned no choices for structured completion")
	}
	content := resp.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, engineerr.New(engineerr.KindMalformedOutput, "openai structured response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func (o *OpenAILLM) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		o.logger.Error("stream failed", zap.Error(err), zap.String("model", o.model))
		return nil, engineerr.Wrap(engineerr.KindTransient, "openai stream failed", err)
	}

	tokenChan := make(chan string)
	go func() {
		defer close(tokenChan)
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				o.logger.Error("stream receive error", zap.Error(err))
				return
			}
			if len(response.Choices) == 0 {
				continue
			}
			delta := response.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case tokenChan <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokenChan, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}

var (
	_ LLM           = (*OpenAILLM)(nil)
	_ StructuredLLM = (*OpenAILLM)(nil)
	_ FullLLM       = (*OpenAILLM)(nil)
)
