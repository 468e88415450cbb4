// Package graph implements the entity/relationship store described in
// spec section 4.9: typed entities and directed, confidence-scored
// relationships indexed for fast lookup and traversal, generalizing the
// teacher's subject/predicate/object triplet store (graphstore/simple.go)
// and knowledge-graph index (index/knowledge_graph.go, index/kg_retriever.go)
// into a typed schema with BFS/DFS traversal primitives.
package graph

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType classifies an Entity per the typed variants in spec section 3.
type EntityType string

const (
	EntityTypeService     EntityType = "service"
	EntityTypePerson      EntityType = "person"
	EntityTypeTeam        EntityType = "team"
	EntityTypeRunbook     EntityType = "runbook"
	EntityTypeIncident    EntityType = "incident"
	EntityTypeDocument    EntityType = "document"
	EntityTypeTechnology  EntityType = "technology"
	EntityTypeAlertRule   EntityType = "alert_rule"
	EntityTypeMetric      EntityType = "metric"
	EntityTypeEnvironment EntityType = "environment"
	EntityTypeNamespace   EntityType = "namespace"
	EntityTypeCustom      EntityType = "custom"
)

// Entity is a named thing in the domain graph. Identity is the pair
// (ID, Type); Name carries the display name and Aliases carry alternate
// spellings a lookup should also match.
type Entity struct {
	ID          string         `json:"id"`
	Type        EntityType     `json:"type"`
	Name        string         `json:"name"`
	Aliases     []string       `json:"aliases,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	NodeIDs     []int          `json:"node_ids,omitempty"`
	TreeIDs     []string       `json:"tree_ids,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewEntity builds an Entity with a generated id, matching the teacher's
// convention of minting uuid.New().String() ids at construction time
// (schema/image_node.go, schema/index_node.go) rather than deferring to
// the store.
func NewEntity(entityType EntityType, name string) *Entity {
	return &Entity{
		ID:   uuid.New().String(),
		Type: entityType,
		Name: name,
	}
}

// MatchesName reports whether query matches this entity's name or any of
// its aliases, case-insensitively and exactly (used by find_entity).
func (e *Entity) MatchesName(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.ToLower(e.Name) == q {
		return true
	}
	for _, a := range e.Aliases {
		if strings.ToLower(a) == q {
			return true
		}
	}
	return false
}

// HasAllTags reports whether e carries every tag in want (subset match).
func (e *Entity) HasAllTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]bool, len(e.Tags))
	for _, t := range e.Tags {
		have[strings.ToLower(t)] = true
	}
	for _, w := range want {
		if !have[strings.ToLower(w)] {
			return false
		}
	}
	return true
}
