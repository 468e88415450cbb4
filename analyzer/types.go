// Package analyzer implements the content analyzer (spec 4.10): given a
// chunk of text it produces a structured judgment of what kind of
// knowledge it carries, who/what it mentions, how those mentions relate,
// how important the chunk is, and a short summary — generalizing the
// teacher's LLM-backed metadata extractors (extractors/types.go's
// MetadataExtractor family) from a bag of independent per-node metadata
// fields into one coherent analysis result consumed by the tree builder,
// the conflict resolver, and the entity/relationship store.
package analyzer

import (
	"github.com/kgraptor/engine/schema"
)

// Mode selects how Analyze calls the LLM.
type Mode string

const (
	// ModeSingleCall issues one combined-prompt structured call.
	ModeSingleCall Mode = "single_call"
	// ModeStepwise issues four parallel calls (type, entities,
	// importance, summary) followed by one dependent relationships call.
	ModeStepwise Mode = "stepwise"
)

// Chunk is the unit of text the analyzer judges.
type Chunk struct {
	Text      string
	SourceURL string
	ChunkID   string
}

// EntityMention is one entity the analyzer found in a chunk.
type EntityMention struct {
	Name          string         `json:"name"`
	CanonicalName string         `json:"canonical_name"`
	Type          string         `json:"type"`
	Confidence    float64        `json:"confidence"`
	ContextSpan   string         `json:"context_span,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// RelationshipMention is one relationship the analyzer found between two
// entity names already present in a chunk's EntityMention list.
type RelationshipMention struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// ImportanceScores is the multi-factor importance judgment (spec 4.10).
type ImportanceScores struct {
	Authority     float64 `json:"authority"`
	Criticality   float64 `json:"criticality"`
	Uniqueness    float64 `json:"uniqueness"`
	Actionability float64 `json:"actionability"`
	Freshness     float64 `json:"freshness"`
	Overall       float64 `json:"overall_importance"`
}

// Result is the analyzer's structured judgment of one chunk.
type Result struct {
	KnowledgeType           schema.KnowledgeType  `json:"knowledge_type"`
	KnowledgeTypeConfidence float64               `json:"knowledge_type_confidence"`
	KnowledgeTypeReasoning  string                `json:"knowledge_type_reasoning,omitempty"`
	Entities                []EntityMention       `json:"entities"`
	Relationships           []RelationshipMention `json:"relationships"`
	Importance              ImportanceScores      `json:"importance"`
	Summary                 string                `json:"summary,omitempty"`
	Keywords                []string              `json:"keywords"`
}

// minimalResult is the never-throw fallback returned after N retry
// failures (spec 4.10): default low scores, empty entity/relationship
// lists.
func minimalResult() *Result {
	return &Result{
		KnowledgeType:           schema.KnowledgeTypeContextual,
		KnowledgeTypeConfidence: 0,
		Entities:                []EntityMention{},
		Relationships:           []RelationshipMention{},
		Importance:              ImportanceScores{},
		Keywords:                []string{},
	}
}
