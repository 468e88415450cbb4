package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kgraptor/engine/keywords"
)

const (
	knowledgeTypePromptTemplate = `Classify the knowledge type of the following content as one of:
procedural, factual, relational, temporal, social, contextual, policy, meta.

Content:
---
%s
---
`
	entitiesPromptTemplate = `List the entities mentioned in the following content, with type and confidence.

Content:
---
%s
---
`
	importancePromptTemplate = `Score the importance of the following content on authority, criticality,
uniqueness, actionability, and freshness, each in [0,1], plus an overall_importance.

Content:
---
%s
---
`
	summaryPromptTemplate = `Write a summary of at most 150 characters for the following content.

Content:
---
%s
---
`
	relationshipsPromptTemplate = `Given the following content and the entities already identified in it,
list the relationships between those entities.

Entities: %s
Content:
---
%s
---
`
)

// analyzeStepwise runs the four independent judgments concurrently, then
// a dependent relationships call using the entities gathered in the
// first round, and finally derives keywords locally rather than with a
// fifth LLM call (spec 4.10). Concurrency follows the same
// errgroup.WithContext shape as tree.Builder.buildLayer — a single fast
// failure cancels the remaining calls rather than waiting them out.
func (a *Analyzer) analyzeStepwise(ctx context.Context, chunk Chunk) (*Result, error) {
	var knowledgeType rawContentAnalysis
	var entities struct {
		Entities []EntityMention `json:"entities"`
	}
	var importance struct {
		Importance rawImportance `json:"importance"`
	}
	var summary struct {
		Summary  string   `json:"summary"`
		Keywords []string `json:"keywords"`
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.callStructured(gctx, fmt.Sprintf(knowledgeTypePromptTemplate, chunk.Text), knowledgeTypeSchemaName, knowledgeTypeSchema, &knowledgeType)
	})
	g.Go(func() error {
		return a.callStructured(gctx, fmt.Sprintf(entitiesPromptTemplate, chunk.Text), entityExtractionSchemaName, entityExtractionSchema, &entities)
	})
	g.Go(func() error {
		return a.callStructured(gctx, fmt.Sprintf(importancePromptTemplate, chunk.Text), importanceAssessmentSchemaName, importanceAssessmentSchema, &importance)
	})
	g.Go(func() error {
		return a.callStructured(gctx, fmt.Sprintf(summaryPromptTemplate, chunk.Text), summarySchemaName, summarySchema, &summary)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entityMentions := withCanonicalNames(entities.Entities)

	var relationships struct {
		Relationships []RelationshipMention `json:"relationships"`
	}
	if len(entityMentions) >= 2 {
		prompt := fmt.Sprintf(relationshipsPromptTemplate, entityNameList(entityMentions), chunk.Text)
		if err := a.callStructured(ctx, prompt, relationshipExtractionSchemaName, relationshipExtractionSchema, &relationships); err != nil {
			return nil, err
		}
	}

	return &Result{
		KnowledgeType:           normalizeKnowledgeType(knowledgeType.KnowledgeType),
		KnowledgeTypeConfidence: knowledgeType.KnowledgeTypeConfidence,
		KnowledgeTypeReasoning:  knowledgeType.KnowledgeTypeReasoning,
		Entities:                entityMentions,
		Relationships:           relationships.Relationships,
		Importance:              importance.Importance.toScores(),
		Summary:                 summary.Summary,
		Keywords:                localKeywords(chunk.Text, entityMentions, summary.Keywords),
	}, nil
}

func entityNameList(entities []EntityMention) string {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	return fmt.Sprintf("%v", names)
}

// localKeywords derives keywords without another LLM round trip: the
// canonical entity names plus regex-based candidates from the content
// itself (keywords.EntityExtractor, spec 4.4 step 3), deduplicated
// against whatever the summary call already returned.
func localKeywords(text string, entities []EntityMention, seed []string) []string {
	seen := make(map[string]bool, len(seed))
	out := append([]string(nil), seed...)
	for _, k := range seed {
		seen[keywords.Normalize(k)] = true
	}
	for _, e := range entities {
		n := keywords.Normalize(e.Name)
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, e.Name)
		}
	}
	for _, candidate := range keywords.NewEntityExtractor().Extract(text) {
		n := keywords.Normalize(candidate.Term)
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, candidate.Term)
		}
	}
	return out
}
