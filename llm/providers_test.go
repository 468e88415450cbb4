package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAILLM_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello there"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	m := NewOpenAILLM(server.URL, "gpt-3.5-turbo", "test-key")
	text, err := m.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestOpenAILLM_CompleteStructured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResponseFormat struct {
				Type       string                 `json:"type"`
				JSONSchema map[string]interface{} `json:"json_schema"`
			} `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-2",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": `{"label":"fact"}`}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	m := NewOpenAILLM(server.URL, "gpt-3.5-turbo", "test-key")
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"label": map[string]interface{}{"type": "string"}},
	}
	raw, err := m.CompleteStructured(context.Background(), "classify this", "KnowledgeTypeResult", schema)
	require.NoError(t, err)

	var result struct {
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "fact", result.Label)
}

func TestMockLLM(t *testing.T) {
	m := NewMockLLM("canned response")

	text, err := m.Complete(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "canned response", text)

	text, err = m.Chat(context.Background(), []ChatMessage{NewUserMessage("anything")})
	require.NoError(t, err)
	assert.Equal(t, "canned response", text)

	ch, err := m.Stream(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "canned response", <-ch)
}

func TestMockLLM_StructuredJSON(t *testing.T) {
	m := &MockLLM{StructuredJSON: json.RawMessage(`{"ok":true}`)}

	raw, err := m.CompleteStructured(context.Background(), "prompt", "Schema", nil)
	require.NoError(t, err)

	var result struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.OK)
}

func TestMockLLM_Error(t *testing.T) {
	m := NewMockLLMWithError(assert.AnError)

	_, err := m.Complete(context.Background(), "anything")
	assert.ErrorIs(t, err, assert.AnError)

	_, err = m.CompleteStructured(context.Background(), "anything", "Schema", nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAnthropicLLM_ConstructsWithOptions(t *testing.T) {
	a := NewAnthropicLLM(
		WithAnthropicAPIKey("test-key"),
		WithAnthropicModel(ClaudeHaiku35),
		WithAnthropicMaxTokens(2048),
	)
	assert.NotNil(t, a)
	assert.Equal(t, ClaudeHaiku35, string(a.model))
	assert.Equal(t, 2048, a.maxTokens)
}

func TestLLMInterfaceCompliance(t *testing.T) {
	var _ FullLLM = (*OpenAILLM)(nil)
	var _ FullLLM = (*AnthropicLLM)(nil)
	var _ FullLLM = (*MockLLM)(nil)
}
