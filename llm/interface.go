// Package llm implements the LLM-JSON capability (spec 6): chat/completion
// against a provider, plus complete_structured(prompt, schema) for the
// content analyzer and conflict resolver, which never accept free-form
// prose back from the model.
package llm

import (
	"context"
	"encoding/json"
)

// LLM is the capability every provider implements: single-shot
// completion, multi-turn chat, and token streaming.
type LLM interface {
	// Complete generates a completion for a given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Chat generates a response for a list of chat messages.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	// Stream generates a streaming completion for a given prompt.
	Stream(ctx context.Context, prompt string) (<-chan string, error)
}

// StructuredLLM is the LLM-JSON capability (spec 6):
// complete_structured(prompt, schema) -> value_or_error. schema is a JSON
// Schema object describing the expected shape; implementations are free
// to enforce it natively (OpenAI's json_schema response format) or via
// prompt instructions plus defensive parsing (Anthropic). The raw JSON
// returned is never partially valid — a provider that can't produce
// schema-conformant output returns an error instead of best-effort text.
type StructuredLLM interface {
	CompleteStructured(ctx context.Context, prompt string, schemaName string, schema map[string]interface{}) (json.RawMessage, error)
}

// FullLLM is the capability surface the content analyzer and conflict
// resolver depend on.
type FullLLM interface {
	LLM
	StructuredLLM
}
