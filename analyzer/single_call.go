package analyzer

import (
	"context"
	"fmt"
)

// combinedPromptTemplate drives the single-call mode: one structured
// completion carrying every field of Result.
const combinedPromptTemplate = `Analyze the following content and produce a structured judgment of its
knowledge type, the entities and relationships it mentions, its
importance, and a short summary with keywords.

Source: %s
Content:
---
%s
---
`

func (a *Analyzer) analyzeSingleCall(ctx context.Context, chunk Chunk) (*Result, error) {
	prompt := fillPrompt(combinedPromptTemplate, chunk)

	var raw rawContentAnalysis
	if err := a.callStructured(ctx, prompt, contentAnalysisSchemaName, contentAnalysisSchema, &raw); err != nil {
		return nil, err
	}
	return raw.toResult(), nil
}

func fillPrompt(template string, chunk Chunk) string {
	source := chunk.SourceURL
	if source == "" {
		source = "(unknown)"
	}
	return fmt.Sprintf(template, source, chunk.Text)
}

// rawContentAnalysis mirrors the wire shape of ContentAnalysisResult;
// kept separate from Result so json field names stay free to diverge
// from the Go-side naming (e.g. the nested knowledge_type_* fields).
type rawContentAnalysis struct {
	KnowledgeType           string                `json:"knowledge_type"`
	KnowledgeTypeConfidence float64               `json:"knowledge_type_confidence"`
	KnowledgeTypeReasoning  string                `json:"knowledge_type_reasoning"`
	Entities                []EntityMention       `json:"entities"`
	Relationships           []RelationshipMention `json:"relationships"`
	Importance              rawImportance         `json:"importance"`
	Summary                 string                `json:"summary"`
	Keywords                []string              `json:"keywords"`
}

type rawImportance struct {
	Authority     float64 `json:"authority"`
	Criticality   float64 `json:"criticality"`
	Uniqueness    float64 `json:"uniqueness"`
	Actionability float64 `json:"actionability"`
	Freshness     float64 `json:"freshness"`
	Overall       float64 `json:"overall_importance"`
}

func (r rawImportance) toScores() ImportanceScores {
	return ImportanceScores{
		Authority:     r.Authority,
		Criticality:   r.Criticality,
		Uniqueness:    r.Uniqueness,
		Actionability: r.Actionability,
		Freshness:     r.Freshness,
		Overall:       r.Overall,
	}
}

func (r rawContentAnalysis) toResult() *Result {
	entities := withCanonicalNames(r.Entities)
	return &Result{
		KnowledgeType:           normalizeKnowledgeType(r.KnowledgeType),
		KnowledgeTypeConfidence: r.KnowledgeTypeConfidence,
		KnowledgeTypeReasoning:  r.KnowledgeTypeReasoning,
		Entities:                entities,
		Relationships:           r.Relationships,
		Importance:              r.Importance.toScores(),
		Summary:                 r.Summary,
		Keywords:                r.Keywords,
	}
}

func withCanonicalNames(entities []EntityMention) []EntityMention {
	out := make([]EntityMention, len(entities))
	for i, e := range entities {
		if e.CanonicalName == "" {
			e.CanonicalName = Canonicalize(e.Name)
		}
		out[i] = e
	}
	return out
}
