package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kgraptor/engine/engineerr"
)

// Anthropic model constants.
const (
	ClaudeOpus45   = string(anthropic.ModelClaudeOpus4_5_20251101)
	ClaudeSonnet45 = string(anthropic.ModelClaudeSonnet4_5_20250929)
	ClaudeHaiku45  = string(anthropic.ModelClaudeHaiku4_5_20251001)
	ClaudeHaiku35  = string(anthropic.ModelClaude3_5HaikuLatest)
)

// AnthropicLLM is a FullLLM backed by the Anthropic Messages API.
type AnthropicLLM struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int
	logger    *zap.Logger
}

// anthropicSettings accumulates client-level options before the
// anthropic.Client is constructed, so WithAnthropicAPIKey and
// WithAnthropicBaseURL can be combined freely regardless of order.
type anthropicSettings struct {
	model      anthropic.Model
	maxTokens  int
	logger     *zap.Logger
	clientOpts []option.RequestOption
}

// AnthropicOption configures an AnthropicLLM.
type AnthropicOption func(*anthropicSettings)

// WithAnthropicAPIKey sets the API key (overrides ANTHROPIC_API_KEY).
func WithAnthropicAPIKey(apiKey string) AnthropicOption {
	return func(s *anthropicSettings) {
		s.clientOpts = append(s.clientOpts, option.WithAPIKey(apiKey))
	}
}

// WithAnthropicBaseURL overrides the API endpoint, mainly for tests.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(s *anthropicSettings) {
		s.clientOpts = append(s.clientOpts, option.WithBaseURL(baseURL))
	}
}

// WithAnthropicModel sets the model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(s *anthropicSettings) {
		s.model = anthropic.Model(model)
	}
}

// WithAnthropicMaxTokens sets the max output tokens.
func WithAnthropicMaxTokens(maxTokens int) AnthropicOption {
	return func(s *anthropicSettings) {
		s.maxTokens = maxTokens
	}
}

// WithAnthropicLogger attaches a structured logger.
func WithAnthropicLogger(logger *zap.Logger) AnthropicOption {
	return func(s *anthropicSettings) {
		s.logger = logger
	}
}

// NewAnthropicLLM creates an AnthropicLLM reading its API key from
// ANTHROPIC_API_KEY unless WithAnthropicAPIKey overrides it.
func NewAnthropicLLM(opts ...AnthropicOption) *AnthropicLLM {
	s := &anthropicSettings{
		model:     anthropic.ModelClaude3_5HaikuLatest,
		maxTokens: 4096,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	client := anthropic.NewClient(s.clientOpts...)
	return &AnthropicLLM{
		client:    &client,
		model:     s.model,
		maxTokens: s.maxTokens,
		logger:    s.logger,
	}
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return a.Chat(ctx, []ChatMessage{NewUserMessage(prompt)})
}

func (a *AnthropicLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	params := a.buildParams(messages)

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		a.logger.Error("chat completion failed", zap.Error(err), zap.String("model", string(a.model)))
		return "", engineerr.Wrap(engineerr.KindTransient, "anthropic chat completion failed", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// CompleteStructured asks Claude for JSON matching schema. Anthropic has
// no native structured-output mode, so the schema is embedded in the
// prompt as an instruction (mirroring the teacher's ChatWithFormat
// approach) and the response is validated as well-formed JSON before
// being handed back; malformed output is a KindMalformedOutput error,
// never partial text.
func (a *AnthropicLLM) CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindMalformedOutput, "failed to marshal schema", err)
	}

	var instruction strings.Builder
	instruction.WriteString("You must respond with a single JSON object conforming exactly to this JSON Schema ")
	instruction.WriteString("(named \"" + schemaName + "\"), with no surrounding text or markdown fences:\n")
	instruction.Write(schemaJSON)
	instruction.WriteString("\n\n")
	instruction.WriteString(prompt)

	text, err := a.Chat(ctx, []ChatMessage{NewUserMessage(instruction.String())})
	if err != nil {
		return nil, err
	}

	raw := json.RawMessage(strings.TrimSpace(text))
	if !json.Valid(raw) {
		return nil, engineerr.New(engineerr.KindMalformedOutput, "anthropic response is not valid JSON")
	}
	return raw, nil
}

func (a *AnthropicLLM) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	params := a.buildParams([]ChatMessage{NewUserMessage(prompt)})
	stream := a.client.Messages.NewStreaming(ctx, params)

	tokenChan := make(chan string)
	go func() {
		defer close(tokenChan)
		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			select {
			case tokenChan <- event.Delta.Text:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			a.logger.Error("stream error", zap.Error(err))
		}
	}()

	return tokenChan, nil
}

func (a *AnthropicLLM) buildParams(messages []ChatMessage) anthropic.MessageNewParams {
	anthropicMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case MessageRoleSystem:
			systemPrompt = msg.Content
		case MessageRoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(a.maxTokens),
		Messages:  anthropicMessages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	return params
}

var (
	_ LLM           = (*AnthropicLLM)(nil)
	_ StructuredLLM = (*AnthropicLLM)(nil)
	_ FullLLM       = (*AnthropicLLM)(nil)
)
