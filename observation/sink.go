package observation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink is the retriever-facing append API (spec 4.14): RecordQuerySuccess
// and RecordQueryFailure log one retrieval outcome each, RecordTeach logs
// an out-of-band importance correction. Generalized from conflict.Resolver's
// Option/logger wiring convention — a Sink write must never block or fail
// the caller's retrieval path, so a Store error is logged and swallowed
// rather than returned.
type Sink struct {
	store  Store
	logger *zap.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sink) { s.logger = logger }
}

// NewSink creates a Sink backed by store.
func NewSink(store Store, opts ...Option) *Sink {
	s := &Sink{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordQuerySuccess appends a query_success observation: query matched
// retrieved content the caller judged useful.
func (s *Sink) RecordQuerySuccess(ctx context.Context, query string, retrieved []NodeRef) {
	s.append(ctx, Observation{
		ID:        uuid.New().String(),
		Kind:      KindQuerySuccess,
		Query:     query,
		Retrieved: retrieved,
		Success:   true,
	})
}

// RecordQueryFailure appends a query_failure observation: query returned
// results the caller judged unhelpful, or returned nothing at all.
func (s *Sink) RecordQueryFailure(ctx context.Context, query string, retrieved []NodeRef) {
	s.append(ctx, Observation{
		ID:        uuid.New().String(),
		Kind:      KindQueryFailure,
		Query:     query,
		Retrieved: retrieved,
		Success:   false,
	})
}

// RecordTeach appends a teach event: an explicit importance correction
// for one node, independent of any single query (spec glossary
// "teach_event").
func (s *Sink) RecordTeach(ctx context.Context, node NodeRef, delta float64, note string) {
	s.append(ctx, Observation{
		ID:         uuid.New().String(),
		Kind:       KindTeach,
		TeachNode:  &node,
		TeachDelta: delta,
		TeachNote:  note,
	})
}

func (s *Sink) append(ctx context.Context, obs Observation) {
	obs.RecordedAt = time.Now()
	if err := s.store.Append(ctx, obs); err != nil {
		s.logger.Warn("observation sink: append failed, observation dropped",
			zap.String("id", obs.ID), zap.String("kind", string(obs.Kind)), zap.Error(err))
	}
}
