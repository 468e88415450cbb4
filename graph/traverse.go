package graph

import (
	"time"

	"github.com/samber/lo"
)

// TraversalResult is one entity reached by Traverse, together with its
// hop distance from the start entity and the relationship chain that
// reached it.
type TraversalResult struct {
	Entity            *Entity
	Distance          int
	PathRelationships []*Relationship
}

// TraverseOptions configures Traverse and ExpandToNodeIDs.
type TraverseOptions struct {
	MaxHops       int
	RelTypes      []RelationshipType
	Direction     Direction
	TargetTypes   []EntityType
	MinConfidence float64
	Limit         int
	Now           time.Time
}

func (o TraverseOptions) direction() Direction {
	if o.Direction == "" {
		return DirectionOutgoing
	}
	return o.Direction
}

func (o TraverseOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o TraverseOptions) matchesTargetType(t EntityType) bool {
	if len(o.TargetTypes) == 0 {
		return true
	}
	for _, want := range o.TargetTypes {
		if want == t {
			return true
		}
	}
	return false
}

type bfsFrontierEntry struct {
	entityID string
	distance int
	path     []*Relationship
}

// Traverse performs a breadth-first walk outward from startID up to
// opts.MaxHops, following relationships whose confidence is at least
// opts.MinConfidence and whose type is in opts.RelTypes (all types if
// empty). The visited set prevents revisits, so each reachable entity is
// reported exactly once, at its shortest distance; results are ordered
// by ascending distance, then by discovery order within that distance,
// per the invariant in spec section 3. max_hops=0 returns no neighbors
// (§ "graph traversal with max_hops=0 returns only the start entity",
// i.e. an empty neighbor result since the start entity itself is not
// included).
func (s *Store) Traverse(startID string, opts TraverseOptions) []TraversalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[startID]; !ok || opts.MaxHops <= 0 {
		return nil
	}

	now := opts.now()
	direction := opts.direction()

	visited := map[string]bool{startID: true}
	queue := []bfsFrontierEntry{{entityID: startID, distance: 0}}
	var results []TraversalResult

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.distance >= opts.MaxHops {
			continue
		}

		for _, neighborKey := range s.neighborKeysLocked(cur.entityID, direction) {
			r := s.relationships[neighborKey]
			if r == nil || !r.Active(now) || !r.matchesType(opts.RelTypes) {
				continue
			}
			if r.Confidence < opts.MinConfidence {
				continue
			}

			neighborID := neighborEntityID(r, cur.entityID)
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			e := s.entities[neighborID]
			if e == nil || !opts.matchesTargetType(e.Type) {
				continue
			}

			path := append(append([]*Relationship(nil), cur.path...), r)
			results = append(results, TraversalResult{Entity: e, Distance: cur.distance + 1, PathRelationships: path})
			queue = append(queue, bfsFrontierEntry{entityID: neighborID, distance: cur.distance + 1, path: path})

			if opts.Limit > 0 && len(results) >= opts.Limit {
				return results
			}
		}
	}

	return results
}

// neighborKeysLocked returns the relationship keys adjacent to entityID
// in the requested direction. Callers must hold s.mu.
func (s *Store) neighborKeysLocked(entityID string, direction Direction) []relationshipKey {
	switch direction {
	case DirectionIncoming:
		return s.incoming[entityID]
	case DirectionBoth:
		return append(append([]relationshipKey(nil), s.outgoing[entityID]...), s.incoming[entityID]...)
	default:
		return s.outgoing[entityID]
	}
}

func neighborEntityID(r *Relationship, from string) string {
	if r.SourceEntityID == from {
		return r.TargetEntityID
	}
	return r.SourceEntityID
}

// FindPaths enumerates every simple path from startID to endID of at
// most maxHops edges via depth-first search, never revisiting an entity
// already on the current path. Edges are restricted to relTypes when
// non-empty and must be active as of now.
func (s *Store) FindPaths(startID, endID string, maxHops int, relTypes []RelationshipType, now time.Time) [][]*Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[startID]; !ok {
		return nil
	}
	if _, ok := s.entities[endID]; !ok {
		return nil
	}
	if now.IsZero() {
		now = time.Now()
	}

	var paths [][]*Relationship
	onPath := map[string]bool{startID: true}
	var walk func(current string, path []*Relationship)
	walk = func(current string, path []*Relationship) {
		if current == endID && len(path) > 0 {
			paths = append(paths, append([]*Relationship(nil), path...))
			return
		}
		if len(path) >= maxHops {
			return
		}
		for _, k := range s.outgoing[current] {
			r := s.relationships[k]
			if r == nil || !r.Active(now) || !r.matchesType(relTypes) {
				continue
			}
			next := r.TargetEntityID
			if onPath[next] {
				continue
			}
			onPath[next] = true
			walk(next, append(path, r))
			delete(onPath, next)
		}
	}
	walk(startID, nil)
	return paths
}

// Neighborhood is the subgraph induced by every entity within hops of a
// center entity: its entities and the relationships entirely internal
// to that set.
type Neighborhood struct {
	Entities      []*Entity
	Relationships []*Relationship
}

// GetNeighborhood extracts the subgraph reachable from entityID within
// hops, following relationships in both directions.
func (s *Store) GetNeighborhood(entityID string, hops int, now time.Time) Neighborhood {
	s.mu.RLock()
	defer s.mu.RUnlock()

	center, ok := s.entities[entityID]
	if !ok {
		return Neighborhood{}
	}
	if now.IsZero() {
		now = time.Now()
	}

	members := map[string]*Entity{entityID: center}
	frontier := []string{entityID}
	for hop := 0; hop < hops; hop++ {
		var next []string
		for _, id := range frontier {
			for _, k := range append(append([]relationshipKey(nil), s.outgoing[id]...), s.incoming[id]...) {
				r := s.relationships[k]
				if r == nil || !r.Active(now) {
					continue
				}
				neighborID := neighborEntityID(r, id)
				if _, seen := members[neighborID]; seen {
					continue
				}
				if e := s.entities[neighborID]; e != nil {
					members[neighborID] = e
					next = append(next, neighborID)
				}
			}
		}
		frontier = next
	}

	entities := lo.Values(members)

	var rels []*Relationship
	seen := map[relationshipKey]bool{}
	for id := range members {
		for _, k := range s.outgoing[id] {
			if seen[k] {
				continue
			}
			r := s.relationships[k]
			if r == nil || !r.Active(now) {
				continue
			}
			if _, targetInSet := members[r.TargetEntityID]; targetInSet {
				rels = append(rels, r)
				seen[k] = true
			}
		}
	}

	return Neighborhood{Entities: entities, Relationships: rels}
}

// ExpandToNodeIDs returns the union of tree-node ids carried by every
// entity reachable from startID within opts.MaxHops, including the
// start entity itself — the bridge that lets a hybrid graph+tree
// retrieval strategy (spec section 4.12) turn a graph match into a set
// of tree nodes to fetch.
func (s *Store) ExpandToNodeIDs(startID string, opts TraverseOptions) []int {
	s.mu.RLock()
	start, ok := s.entities[startID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	var ids []int
	ids = append(ids, start.NodeIDs...)
	for _, res := range s.Traverse(startID, opts) {
		ids = append(ids, res.Entity.NodeIDs...)
	}
	return lo.Uniq(ids)
}
