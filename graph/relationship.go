package graph

import "time"

// RelationshipType labels the edge kind between two entities, e.g.
// "depends_on", "owns", "supersedes". The domain is open — unlike
// EntityType it is not a fixed enum, since relationship vocabularies are
// extracted from free text by the content analyzer (spec 4.10).
type RelationshipType string

// Direction selects which adjacency a traversal or lookup should follow.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Relationship is a directed, confidence-scored edge between two
// entities, generalizing the teacher's untyped (subject, relation,
// object) Triplet (graphstore/types.go) with validity windows and
// provenance.
type Relationship struct {
	SourceEntityID string           `json:"source_entity_id"`
	TargetEntityID string           `json:"target_entity_id"`
	Type           RelationshipType `json:"type"`
	Confidence     float64          `json:"confidence"`
	Properties     map[string]any   `json:"properties,omitempty"`
	ValidFrom      time.Time        `json:"valid_from"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Inferred       bool             `json:"inferred"`
	Provenance     string           `json:"provenance,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// key identifies a relationship by its (source, target, type) tuple, the
// unit that invariant forbids duplicating (spec section 3: "duplicate
// (src,tgt,type) tuples are disallowed; update in place").
type relationshipKey struct {
	source string
	target string
	kind   RelationshipType
}

func (r *Relationship) key() relationshipKey {
	return relationshipKey{source: r.SourceEntityID, target: r.TargetEntityID, kind: r.Type}
}

// Active reports whether the relationship holds at instant now, i.e.
// now falls within [ValidFrom, ValidUntil]. A nil ValidUntil means no
// expiry.
func (r *Relationship) Active(now time.Time) bool {
	if now.Before(r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

func (r *Relationship) matchesType(types []RelationshipType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if r.Type == t {
			return true
		}
	}
	return false
}
