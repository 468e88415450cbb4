package graph

import (
	"context"
	"encoding/json"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/store"
)

const storeCollection = "entity_graph"
const storeSnapshotKey = "snapshot"

// storeSnapshot is the on-disk shape of a Store: entities and
// relationships flattened to slices, since indices are rebuilt from
// them on load rather than persisted directly.
type storeSnapshot struct {
	Entities      []*Entity       `json:"entities"`
	Relationships []*Relationship `json:"relationships"`
}

// Save persists the entire graph to a single KVStore entry, mirroring
// the teacher's file-backed SimpleGraphStore.Persist (graphstore/simple.go)
// but through the engine's KVStore abstraction instead of a bare
// os.WriteFile call, consistent with how the tree Forest persists
// (tree/forest.go).
func (s *Store) Save(ctx context.Context, kv store.KVStore) error {
	s.mu.RLock()
	snap := storeSnapshot{
		Entities:      make([]*Entity, 0, len(s.entities)),
		Relationships: make([]*Relationship, 0, len(s.relationships)),
	}
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, e)
	}
	for _, r := range s.relationships {
		snap.Relationships = append(snap.Relationships, r)
	}
	s.mu.RUnlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return engineerr.Wrap(engineerr.KindCacheCorruption, "graph: marshal snapshot failed", err)
	}
	var value store.StoredValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return engineerr.Wrap(engineerr.KindCacheCorruption, "graph: re-decode snapshot failed", err)
	}
	return kv.Put(ctx, storeSnapshotKey, value, storeCollection)
}

// Load rebuilds a Store from a KVStore previously populated by Save.
// Entities are loaded before relationships so every relationship's
// endpoint-existence check in UpsertRelationship succeeds.
func Load(ctx context.Context, kv store.KVStore) (*Store, error) {
	value, err := kv.Get(ctx, storeSnapshotKey, storeCollection)
	if err != nil {
		return nil, err
	}
	s := NewStore()
	if value == nil {
		return s, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindCacheCorruption, "graph: re-encode stored snapshot failed", err)
	}
	var snap storeSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, engineerr.Wrap(engineerr.KindCacheCorruption, "graph: decode snapshot failed", err)
	}

	for _, e := range snap.Entities {
		if err := s.UpsertEntity(e); err != nil {
			return nil, err
		}
	}
	for _, r := range snap.Relationships {
		if err := s.UpsertRelationship(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}
