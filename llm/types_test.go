package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatMessageConstructors(t *testing.T) {
	sys := NewSystemMessage("be terse")
	assert.Equal(t, MessageRoleSystem, sys.Role)
	assert.Equal(t, "be terse", sys.Content)

	user := NewUserMessage("hello")
	assert.Equal(t, MessageRoleUser, user.Role)

	assistant := NewAssistantMessage("hi")
	assert.Equal(t, MessageRoleAssistant, assistant.Role)
}

func TestDefaultLLMMetadata(t *testing.T) {
	meta := DefaultLLMMetadata("some-model")
	assert.Equal(t, "some-model", meta.ModelName)
	assert.Equal(t, 4096, meta.ContextWindow)
}

func TestNewJSONSchemaResponseFormat(t *testing.T) {
	schema := map[string]interface{}{"type": "object"}
	format := NewJSONSchemaResponseFormat("MySchema", schema)
	assert.Equal(t, "json_schema", format.Type)
	assert.Equal(t, "MySchema", format.Name)
	assert.Equal(t, schema, format.JSONSchema)
}

func TestNewCompletionResponse(t *testing.T) {
	resp := NewCompletionResponse("the answer")
	assert.Equal(t, "the answer", resp.Text)
}
