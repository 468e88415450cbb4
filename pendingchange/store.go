package pendingchange

import "context"

// FallbackStore persists a PendingChange locally when the review
// service can't be reached (spec 4.13: "on failure, store locally and
// continue"). Implementations must not block ingestion either —
// Save should be a cheap local write, not another network call.
type FallbackStore interface {
	Save(ctx context.Context, pc PendingChange) error
	// List returns everything currently sitting in the fallback store,
	// ordered by CreatedAt, for a later out-of-band replay against the
	// review service.
	List(ctx context.Context) ([]PendingChange, error)
}
