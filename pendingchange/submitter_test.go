package pendingchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestSubmitter_SubmitsSuccessfullyAndNeverTouchesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "pending.db")
	fallback, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fallback.Close()

	sub := NewSubmitter(Config{ReviewServiceURL: srv.URL}, fallback)
	pc := PendingChange{ID: "pc-ok", Status: StatusPending, CreatedAt: time.Now()}
	if err := sub.Submit(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := fallback.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected a successful submission to never touch the fallback store, got %+v", stored)
	}
}

func TestSubmitter_FallsBackToLocalStoreOnReviewServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "pending.db")
	fallback, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fallback.Close()

	sub := NewSubmitter(Config{ReviewServiceURL: srv.URL, MaxRetries: 1}, fallback)
	pc := PendingChange{ID: "pc-fail", Status: StatusPending, CreatedAt: time.Now()}
	if err := sub.Submit(context.Background(), pc); err != nil {
		t.Fatalf("expected Submit to swallow the review-service failure by falling back, got: %v", err)
	}

	stored, err := fallback.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != StatusFailedLocal {
		t.Fatalf("expected the change to land in the fallback store as failed_local, got %+v", stored)
	}
}

func TestSubmitter_FallsBackWhenReviewServiceUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.db")
	fallback, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fallback.Close()

	// No server listening on this address.
	sub := NewSubmitter(Config{ReviewServiceURL: "http://127.0.0.1:0", MaxRetries: 1}, fallback)
	pc := PendingChange{ID: "pc-unreachable", Status: StatusPending, CreatedAt: time.Now()}
	if err := sub.Submit(context.Background(), pc); err != nil {
		t.Fatalf("expected ingestion to never be blocked by an unreachable review service, got: %v", err)
	}

	stored, err := fallback.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected the change to land in the fallback store, got %+v", stored)
	}
}
