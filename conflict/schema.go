package conflict

const conflictResolutionSchemaName = "ConflictResolutionResult"

// conflictResolutionSchema mirrors spec 4.11's ConflictResolutionResult,
// following the same JSON-Schema-literal idiom as analyzer/schemas.go and
// keywords/llm.go's llmKeywordSchema.
var conflictResolutionSchema = map[string]interface{}{
	"type":  "object",
	"title": conflictResolutionSchemaName,
	"properties": map[string]interface{}{
		"relationship": map[string]interface{}{
			"type": "string",
			"enum": []string{"duplicate", "supersedes", "contradicts", "complements", "unrelated"},
		},
		"recommendation": map[string]interface{}{
			"type": "string",
			"enum": []string{"skip", "replace", "merge", "add_as_new", "flag_review"},
		},
		"confidence": map[string]interface{}{"type": "number"},
		"importance_adjustment": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"existing_multiplier": map[string]interface{}{"type": "number"},
				"new_importance":      map[string]interface{}{"type": "number"},
			},
			"required": []string{"existing_multiplier", "new_importance"},
		},
		"reasoning":      map[string]interface{}{"type": "string"},
		"merged_content": map[string]interface{}{"type": "string"},
	},
	"required": []string{"relationship", "recommendation", "confidence", "importance_adjustment"},
}
