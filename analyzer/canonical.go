package analyzer

import (
	"regexp"
	"strings"

	"github.com/kgraptor/engine/schema"
)

var validKnowledgeTypes = map[schema.KnowledgeType]bool{
	schema.KnowledgeTypeProcedural: true,
	schema.KnowledgeTypeFactual:    true,
	schema.KnowledgeTypeRelational: true,
	schema.KnowledgeTypeTemporal:   true,
	schema.KnowledgeTypeSocial:     true,
	schema.KnowledgeTypeContextual: true,
	schema.KnowledgeTypePolicy:     true,
	schema.KnowledgeTypeMeta:       true,
}

// normalizeKnowledgeType maps a raw LLM-provided string onto the
// schema.KnowledgeType enum, defaulting to Contextual when the model
// returned something outside the eight recognized values.
func normalizeKnowledgeType(raw string) schema.KnowledgeType {
	kt := schema.KnowledgeType(strings.ToLower(strings.TrimSpace(raw)))
	if validKnowledgeTypes[kt] {
		return kt
	}
	return schema.KnowledgeTypeContextual
}

var canonicalNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Canonicalize lowercases name and kebab-cases it, per spec 4.10's
// canonical_name field ("lowercased, kebab-cased"). Consecutive
// non-alphanumeric runs collapse to a single hyphen, and leading/trailing
// hyphens are trimmed.
func Canonicalize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	kebab := canonicalNonAlnum.ReplaceAllString(lower, "-")
	return strings.Trim(kebab, "-")
}
