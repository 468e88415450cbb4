package observation

import (
	"context"
	"time"
)

// Store persists Observations for later, asynchronous consumption by
// the importance-update process. Append-only: there is no Update or
// Delete, since an observation is a historical fact about a query or
// teaching event, not mutable state.
type Store interface {
	Append(ctx context.Context, obs Observation) error
	// List returns observations recorded at or after since, ordered by
	// RecordedAt ascending — the importance-update process's read side,
	// polling for everything it hasn't consumed yet.
	List(ctx context.Context, since time.Time) ([]Observation, error)
}
