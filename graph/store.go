package graph

import (
	"strings"
	"sync"
	"time"

	"github.com/kgraptor/engine/engineerr"
)

// Store is an in-memory, indexed entity/relationship graph (spec 4.9).
// It generalizes the teacher's SimpleGraphStore (graphstore/simple.go),
// which indexed only a flat by-subject map of triplets, into typed
// entities with indices by type, by lowercase name, and by alias, plus
// typed, confidence-scored, time-windowed relationships with outgoing
// and incoming adjacency.
type Store struct {
	mu sync.RWMutex

	entities    map[string]*Entity
	byType      map[EntityType]map[string]bool
	byLowerName map[string]map[string]bool
	byAlias     map[string]map[string]bool

	relationships map[relationshipKey]*Relationship
	outgoing      map[string][]relationshipKey
	incoming      map[string][]relationshipKey
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entities:      make(map[string]*Entity),
		byType:        make(map[EntityType]map[string]bool),
		byLowerName:   make(map[string]map[string]bool),
		byAlias:       make(map[string]map[string]bool),
		relationships: make(map[relationshipKey]*Relationship),
		outgoing:      make(map[string][]relationshipKey),
		incoming:      make(map[string][]relationshipKey),
	}
}

// UpsertEntity adds e or, if an entity with the same ID already exists,
// replaces it, updating every index atomically under the store's lock.
func (s *Store) UpsertEntity(e *Entity) error {
	if e.ID == "" {
		return engineerr.New(engineerr.KindValidation, "entity id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entities[e.ID]; ok {
		s.removeFromIndicesLocked(existing)
	}

	now := e.UpdatedAt
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	s.entities[e.ID] = e
	s.addToIndicesLocked(e)
	return nil
}

func (s *Store) addToIndicesLocked(e *Entity) {
	if s.byType[e.Type] == nil {
		s.byType[e.Type] = make(map[string]bool)
	}
	s.byType[e.Type][e.ID] = true

	lower := strings.ToLower(e.Name)
	if s.byLowerName[lower] == nil {
		s.byLowerName[lower] = make(map[string]bool)
	}
	s.byLowerName[lower][e.ID] = true

	for _, a := range e.Aliases {
		la := strings.ToLower(a)
		if s.byAlias[la] == nil {
			s.byAlias[la] = make(map[string]bool)
		}
		s.byAlias[la][e.ID] = true
	}
}

func (s *Store) removeFromIndicesLocked(e *Entity) {
	delete(s.byType[e.Type], e.ID)
	delete(s.byLowerName[strings.ToLower(e.Name)], e.ID)
	for _, a := range e.Aliases {
		delete(s.byAlias[strings.ToLower(a)], e.ID)
	}
}

// GetEntity returns the entity with the given id, or nil if absent.
func (s *Store) GetEntity(id string) *Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities[id]
}

// FindEntity returns the first entity whose name or alias matches query
// case-insensitively and exactly.
func (s *Store) FindEntity(query string) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(strings.TrimSpace(query))
	for id := range s.byLowerName[lower] {
		return s.entities[id], true
	}
	for id := range s.byAlias[lower] {
		return s.entities[id], true
	}
	return nil, false
}

// EntityFilter narrows FindEntities: a zero-value field leaves that
// dimension unfiltered.
type EntityFilter struct {
	NameSubstring string
	Type          EntityType
	Tags          []string
}

// FindEntities returns every entity matching all of the given filter's
// non-zero dimensions: substring name match, exact type, and tag subset.
func (s *Store) FindEntities(filter EntityFilter) []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowerSubstr := strings.ToLower(filter.NameSubstring)
	var out []*Entity
	for _, e := range s.entities {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if lowerSubstr != "" && !strings.Contains(strings.ToLower(e.Name), lowerSubstr) {
			continue
		}
		if !e.HasAllTags(filter.Tags) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// UpsertRelationship inserts r, or updates an existing relationship with
// the same (source, target, type) tuple in place, per the no-duplicate
// invariant in spec section 3. Both endpoints must already exist and
// confidence must be in [0,1].
func (s *Store) UpsertRelationship(r *Relationship) error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return engineerr.New(engineerr.KindValidation, "relationship confidence must be in [0,1]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[r.SourceEntityID]; !ok {
		return engineerr.New(engineerr.KindGraphIntegrity, "relationship source entity does not exist: "+r.SourceEntityID)
	}
	if _, ok := s.entities[r.TargetEntityID]; !ok {
		return engineerr.New(engineerr.KindGraphIntegrity, "relationship target entity does not exist: "+r.TargetEntityID)
	}

	key := r.key()
	if _, exists := s.relationships[key]; !exists {
		s.outgoing[r.SourceEntityID] = append(s.outgoing[r.SourceEntityID], key)
		s.incoming[r.TargetEntityID] = append(s.incoming[r.TargetEntityID], key)
	}
	if r.ValidFrom.IsZero() {
		r.ValidFrom = r.CreatedAt
	}
	s.relationships[key] = r
	return nil
}

// GetRelationships returns the active relationships touching entityID in
// the requested direction, optionally restricted to relTypes.
func (s *Store) GetRelationships(entityID string, direction Direction, relTypes []RelationshipType, now time.Time) []*Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Relationship
	if direction == DirectionOutgoing || direction == DirectionBoth {
		for _, k := range s.outgoing[entityID] {
			if r := s.relationships[k]; r != nil && r.Active(now) && r.matchesType(relTypes) {
				out = append(out, r)
			}
		}
	}
	if direction == DirectionIncoming || direction == DirectionBoth {
		for _, k := range s.incoming[entityID] {
			if r := s.relationships[k]; r != nil && r.Active(now) && r.matchesType(relTypes) {
				out = append(out, r)
			}
		}
	}
	return out
}

// EntityCount returns the number of entities in the store.
func (s *Store) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// RelationshipCount returns the number of distinct relationship tuples.
func (s *Store) RelationshipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relationships)
}
