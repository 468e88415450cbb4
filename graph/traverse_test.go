package graph

import (
	"testing"
	"time"
)

func dependencyChain(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	for _, id := range []string{"api", "auth", "db"} {
		if err := s.UpsertEntity(newTestEntity(id, EntityTypeService, id)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	mustUpsertRel := func(src, dst string) {
		if err := s.UpsertRelationship(&Relationship{SourceEntityID: src, TargetEntityID: dst, Type: "depends_on", Confidence: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	mustUpsertRel("api", "auth")
	mustUpsertRel("auth", "db")
	return s
}

func TestStore_TraverseRespectsMaxHopsAndDistances(t *testing.T) {
	s := dependencyChain(t)

	one := s.Traverse("api", TraverseOptions{MaxHops: 1})
	if len(one) != 1 || one[0].Entity.ID != "auth" || one[0].Distance != 1 {
		t.Fatalf("expected max_hops=1 to return only {auth} at distance 1, got %+v", one)
	}

	two := s.Traverse("api", TraverseOptions{MaxHops: 2})
	if len(two) != 2 {
		t.Fatalf("expected max_hops=2 to return 2 entities, got %d", len(two))
	}
	byID := map[string]int{}
	for _, r := range two {
		byID[r.Entity.ID] = r.Distance
	}
	if byID["auth"] != 1 || byID["db"] != 2 {
		t.Fatalf("expected distances {auth:1, db:2}, got %+v", byID)
	}
}

func TestStore_TraverseMaxHopsZeroReturnsNothing(t *testing.T) {
	s := dependencyChain(t)
	if got := s.Traverse("api", TraverseOptions{MaxHops: 0}); got != nil {
		t.Fatalf("expected max_hops=0 to return no neighbors, got %+v", got)
	}
}

func TestStore_TraverseNeverRevisitsAnEntity(t *testing.T) {
	s := NewStore()
	_ = s.UpsertEntity(newTestEntity("a", EntityTypeService, "a"))
	_ = s.UpsertEntity(newTestEntity("b", EntityTypeService, "b"))
	_ = s.UpsertEntity(newTestEntity("c", EntityTypeService, "c"))
	_ = s.UpsertRelationship(&Relationship{SourceEntityID: "a", TargetEntityID: "b", Type: "rel", Confidence: 1})
	_ = s.UpsertRelationship(&Relationship{SourceEntityID: "a", TargetEntityID: "c", Type: "rel", Confidence: 1})
	_ = s.UpsertRelationship(&Relationship{SourceEntityID: "b", TargetEntityID: "c", Type: "rel", Confidence: 1})

	got := s.Traverse("a", TraverseOptions{MaxHops: 3, Direction: DirectionOutgoing})
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.Entity.ID] {
			t.Fatalf("entity %s visited more than once", r.Entity.ID)
		}
		seen[r.Entity.ID] = true
	}
}

func TestStore_FindPathsFindsExactlyOnePath(t *testing.T) {
	s := dependencyChain(t)
	paths := s.FindPaths("api", "db", 3, nil, time.Time{})
	if len(paths) != 1 {
		t.Fatalf("expected exactly one path, got %d", len(paths))
	}
	path := paths[0]
	if len(path) != 2 || path[0].TargetEntityID != "auth" || path[1].TargetEntityID != "db" {
		t.Fatalf("expected path api->auth->db, got %+v", path)
	}
}

func TestStore_FindPathsRespectsHopBudget(t *testing.T) {
	s := dependencyChain(t)
	paths := s.FindPaths("api", "db", 1, nil, time.Time{})
	if len(paths) != 0 {
		t.Fatalf("expected no path within 1 hop, got %d", len(paths))
	}
}

func TestStore_GetNeighborhoodIncludesOnlyInternalRelationships(t *testing.T) {
	s := dependencyChain(t)
	_ = s.UpsertEntity(newTestEntity("far", EntityTypeService, "far"))
	_ = s.UpsertRelationship(&Relationship{SourceEntityID: "db", TargetEntityID: "far", Type: "depends_on", Confidence: 1})

	nb := s.GetNeighborhood("api", 2, time.Time{})
	if len(nb.Entities) != 3 {
		t.Fatalf("expected 3 entities within 2 hops, got %d", len(nb.Entities))
	}
	for _, r := range nb.Relationships {
		if r.TargetEntityID == "far" {
			t.Fatalf("expected relationship to entity outside the neighborhood to be excluded")
		}
	}
}

func TestStore_ExpandToNodeIDsUnionsReachableNodeIDs(t *testing.T) {
	s := dependencyChain(t)
	api := s.GetEntity("api")
	api.NodeIDs = []int{1, 2}
	auth := s.GetEntity("auth")
	auth.NodeIDs = []int{2, 3}
	db := s.GetEntity("db")
	db.NodeIDs = []int{4}

	ids := s.ExpandToNodeIDs("api", TraverseOptions{MaxHops: 2})
	seen := map[int]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for _, want := range []int{1, 2, 3, 4} {
		if !seen[want] {
			t.Fatalf("expected node id %d in expansion, got %v", want, ids)
		}
	}
}
