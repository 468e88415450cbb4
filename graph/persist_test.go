package graph

import (
	"context"
	"testing"

	"github.com/kgraptor/engine/store"
)

func TestStore_SaveAndLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	svc := newTestEntity("svc-api", EntityTypeService, "api")
	svc.Aliases = []string{"frontend-api"}
	_ = s.UpsertEntity(svc)
	_ = s.UpsertEntity(newTestEntity("svc-auth", EntityTypeService, "auth"))
	_ = s.UpsertRelationship(&Relationship{SourceEntityID: "svc-api", TargetEntityID: "svc-auth", Type: "depends_on", Confidence: 0.8})

	kv := store.NewSimpleKVStore()
	if err := s.Save(ctx, kv); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.EntityCount() != 2 {
		t.Fatalf("expected 2 entities to round-trip, got %d", loaded.EntityCount())
	}
	if loaded.RelationshipCount() != 1 {
		t.Fatalf("expected 1 relationship to round-trip, got %d", loaded.RelationshipCount())
	}
	if e, ok := loaded.FindEntity("frontend-api"); !ok || e.ID != "svc-api" {
		t.Fatalf("expected alias index to be rebuilt on load")
	}
}
