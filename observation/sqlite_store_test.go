package observation

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStore_AppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	obs := Observation{
		ID:         "obs-1",
		Kind:       KindQuerySuccess,
		Query:      "how do I restart the ingest worker",
		Retrieved:  []NodeRef{{TreeID: "t1", Index: 3, Score: 0.91}},
		Success:    true,
		RecordedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Append(ctx, obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := store.List(ctx, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 stored observation, got %d", len(all))
	}
	if all[0].ID != obs.ID || all[0].Query != obs.Query {
		t.Fatalf("expected round-tripped observation to match, got %+v", all[0])
	}
	if len(all[0].Retrieved) != 1 || all[0].Retrieved[0].Index != 3 {
		t.Fatalf("expected retrieved node refs to round-trip, got %+v", all[0].Retrieved)
	}
}

func TestSQLiteStore_AppendNeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		obs := Observation{ID: string(rune('a' + i)), Kind: KindQueryFailure, RecordedAt: time.Now()}
		if err := store.Append(ctx, obs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := store.List(ctx, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected every append to land as its own row, got %d", len(all))
	}
}

func TestSQLiteStore_ListFiltersBySince(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	old := Observation{ID: "old", Kind: KindQuerySuccess, RecordedAt: time.Now().Add(-48 * time.Hour)}
	recent := Observation{ID: "recent", Kind: KindQuerySuccess, RecordedAt: time.Now()}
	if err := store.Append(ctx, old); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(ctx, recent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	since := time.Now().Add(-1 * time.Hour)
	all, err := store.List(ctx, since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].ID != "recent" {
		t.Fatalf("expected only the recent observation, got %+v", all)
	}
}

func TestSQLiteStore_TeachEventRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	node := NodeRef{TreeID: "t1", Index: 9, Score: 0}
	obs := Observation{
		ID:         "teach-1",
		Kind:       KindTeach,
		TeachNode:  &node,
		TeachDelta: 0.15,
		TeachNote:  "confirmed correct by on-call",
		RecordedAt: time.Now(),
	}
	if err := store.Append(ctx, obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := store.List(ctx, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].TeachNode == nil {
		t.Fatalf("expected teach node to round-trip, got %+v", all)
	}
	if all[0].TeachNode.Index != 9 || all[0].TeachDelta != 0.15 {
		t.Fatalf("expected teach node/delta to match, got %+v", all[0])
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(context.Background(), Observation{ID: "persist-1", Kind: KindQuerySuccess, RecordedAt: time.Now()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.List(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].ID != "persist-1" {
		t.Fatalf("expected the observation to survive reopening the store, got %+v", all)
	}
}
