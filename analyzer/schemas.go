package analyzer

// Schema name/map pairs passed to llm.StructuredLLM.CompleteStructured,
// following the teacher-adjacent convention established in
// keywords/llm.go's llmKeywordSchema: a JSON Schema literal per result
// shape so providers with native structured-output modes (OpenAI's
// json_schema response format) can enforce it server-side.

const contentAnalysisSchemaName = "ContentAnalysisResult"

var contentAnalysisSchema = map[string]interface{}{
	"type":  "object",
	"title": contentAnalysisSchemaName,
	"properties": map[string]interface{}{
		"knowledge_type":           knowledgeTypeEnumProperty(),
		"knowledge_type_confidence": map[string]interface{}{"type": "number"},
		"knowledge_type_reasoning": map[string]interface{}{"type": "string"},
		"entities":                 entityArrayProperty(),
		"relationships":            relationshipArrayProperty(),
		"importance":               importanceObjectProperty(),
		"summary":                  map[string]interface{}{"type": "string"},
		"keywords":                 map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	},
	"required": []string{"knowledge_type", "entities", "relationships", "importance", "summary", "keywords"},
}

const knowledgeTypeSchemaName = "KnowledgeTypeResult"

var knowledgeTypeSchema = map[string]interface{}{
	"type":  "object",
	"title": knowledgeTypeSchemaName,
	"properties": map[string]interface{}{
		"knowledge_type":            knowledgeTypeEnumProperty(),
		"knowledge_type_confidence": map[string]interface{}{"type": "number"},
		"knowledge_type_reasoning":  map[string]interface{}{"type": "string"},
	},
	"required": []string{"knowledge_type"},
}

const entityExtractionSchemaName = "EntityExtractionResult"

var entityExtractionSchema = map[string]interface{}{
	"type":       "object",
	"title":      entityExtractionSchemaName,
	"properties": map[string]interface{}{"entities": entityArrayProperty()},
	"required":   []string{"entities"},
}

const relationshipExtractionSchemaName = "RelationshipExtractionResult"

var relationshipExtractionSchema = map[string]interface{}{
	"type":       "object",
	"title":      relationshipExtractionSchemaName,
	"properties": map[string]interface{}{"relationships": relationshipArrayProperty()},
	"required":   []string{"relationships"},
}

const importanceAssessmentSchemaName = "ImportanceAssessment"

var importanceAssessmentSchema = map[string]interface{}{
	"type":       "object",
	"title":      importanceAssessmentSchemaName,
	"properties": map[string]interface{}{"importance": importanceObjectProperty()},
	"required":   []string{"importance"},
}

const summarySchemaName = "ContentSummaryResult"

var summarySchema = map[string]interface{}{
	"type":  "object",
	"title": summarySchemaName,
	"properties": map[string]interface{}{
		"summary":  map[string]interface{}{"type": "string"},
		"keywords": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	},
	"required": []string{"summary"},
}

func knowledgeTypeEnumProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "string",
		"enum": []string{"procedural", "factual", "relational", "temporal", "social", "contextual", "policy", "meta"},
	}
}

func entityArrayProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":           map[string]interface{}{"type": "string"},
				"canonical_name": map[string]interface{}{"type": "string"},
				"type":           map[string]interface{}{"type": "string"},
				"confidence":     map[string]interface{}{"type": "number"},
				"context_span":   map[string]interface{}{"type": "string"},
				"attributes":     map[string]interface{}{"type": "object"},
			},
			"required": []string{"name", "type", "confidence"},
		},
	}
}

func relationshipArrayProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"source":     map[string]interface{}{"type": "string"},
				"target":     map[string]interface{}{"type": "string"},
				"type":       map[string]interface{}{"type": "string"},
				"confidence": map[string]interface{}{"type": "number"},
				"evidence":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"source", "target", "type", "confidence"},
		},
	}
}

func importanceObjectProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"authority":          map[string]interface{}{"type": "number"},
			"criticality":        map[string]interface{}{"type": "number"},
			"uniqueness":         map[string]interface{}{"type": "number"},
			"actionability":      map[string]interface{}{"type": "number"},
			"freshness":          map[string]interface{}{"type": "number"},
			"overall_importance": map[string]interface{}{"type": "number"},
		},
		"required": []string{"overall_importance"},
	}
}
