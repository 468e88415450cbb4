package observation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	appended []Observation
	failNext bool
}

func (f *fakeStore) Append(ctx context.Context, obs Observation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("store unavailable")
	}
	f.appended = append(f.appended, obs)
	return nil
}

func (f *fakeStore) List(ctx context.Context, since time.Time) ([]Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appended, nil
}

func TestSink_RecordQuerySuccessAppendsObservation(t *testing.T) {
	store := &fakeStore{}
	sink := NewSink(store)
	sink.RecordQuerySuccess(context.Background(), "what broke the deploy", []NodeRef{{TreeID: "t1", Index: 2, Score: 0.8}})

	if len(store.appended) != 1 {
		t.Fatalf("expected 1 appended observation, got %d", len(store.appended))
	}
	if store.appended[0].Kind != KindQuerySuccess || !store.appended[0].Success {
		t.Fatalf("expected a successful query_success observation, got %+v", store.appended[0])
	}
	if store.appended[0].ID == "" {
		t.Fatalf("expected a non-empty id")
	}
}

func TestSink_RecordQueryFailureAppendsObservation(t *testing.T) {
	store := &fakeStore{}
	sink := NewSink(store)
	sink.RecordQueryFailure(context.Background(), "unanswerable query", nil)

	if len(store.appended) != 1 || store.appended[0].Kind != KindQueryFailure {
		t.Fatalf("expected 1 query_failure observation, got %+v", store.appended)
	}
	if store.appended[0].Success {
		t.Fatalf("expected Success=false for a query_failure observation")
	}
}

func TestSink_RecordTeachAppendsObservation(t *testing.T) {
	store := &fakeStore{}
	sink := NewSink(store)
	sink.RecordTeach(context.Background(), NodeRef{TreeID: "t1", Index: 5}, 0.2, "analyst confirmed relevance")

	if len(store.appended) != 1 || store.appended[0].Kind != KindTeach {
		t.Fatalf("expected 1 teach observation, got %+v", store.appended)
	}
	if store.appended[0].TeachNode == nil || store.appended[0].TeachNode.Index != 5 {
		t.Fatalf("expected teach node to carry through, got %+v", store.appended[0])
	}
}

func TestSink_SwallowsStoreFailures(t *testing.T) {
	store := &fakeStore{failNext: true}
	sink := NewSink(store)

	// Must not panic or block the caller even though the store fails.
	sink.RecordQuerySuccess(context.Background(), "query", nil)

	if len(store.appended) != 0 {
		t.Fatalf("expected the failed append to not be recorded, got %+v", store.appended)
	}
}
