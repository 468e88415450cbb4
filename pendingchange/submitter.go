package pendingchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kgraptor/engine/engineerr"
)

// Config configures a Submitter.
type Config struct {
	// ReviewServiceURL is the endpoint the PendingChange is POSTed to.
	ReviewServiceURL string
	// HTTPTimeout bounds a single POST attempt. Defaults to 10s.
	HTTPTimeout time.Duration
	// MaxRetries bounds how many times a failed POST is retried before
	// falling back to the local store. Defaults to 1 (one retry after the
	// first failed attempt).
	MaxRetries uint64
}

func (c Config) httpTimeout() time.Duration {
	if c.HTTPTimeout > 0 {
		return c.HTTPTimeout
	}
	return 10 * time.Second
}

func (c Config) maxRetries() uint64 {
	if c.MaxRetries == 0 {
		return 1
	}
	return c.MaxRetries
}

// Submitter transforms a resolver's flag_review outcome into an
// external submission (spec 4.13): a fire-and-forget HTTP POST to an
// internal review service, falling back to a local store on failure
// rather than ever blocking ingestion.
type Submitter struct {
	cfg        Config
	httpClient *http.Client
	fallback   FallbackStore
	logger     *zap.Logger
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Submitter) { s.logger = logger }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Submitter) { s.httpClient = client }
}

// NewSubmitter creates a Submitter. fallback is where a PendingChange
// lands when the review service can't be reached; pass a *SQLiteStore
// for a durable local fallback.
func NewSubmitter(cfg Config, fallback FallbackStore, opts ...Option) *Submitter {
	s := &Submitter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.httpTimeout()},
		fallback:   fallback,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit posts pc to the review service, retrying per cfg.MaxRetries
// on transient failure. On permanent failure it writes pc to the
// fallback store with status failed_local and returns nil — spec
// 4.13's "never block ingestion on review-service availability" means
// a fallback write, not an HTTP failure, is this call's only failure
// mode. An error return means even the fallback write failed, which
// the caller should log but still not treat as fatal to ingestion.
func (s *Submitter) Submit(ctx context.Context, pc PendingChange) error {
	err := s.retry(ctx, func() error { return s.post(ctx, pc) })
	if err == nil {
		return nil
	}

	s.logger.Warn("pending-change review service unreachable, falling back to local store",
		zap.String("id", pc.ID), zap.Error(err))

	pc.Status = StatusFailedLocal
	if saveErr := s.fallback.Save(ctx, pc); saveErr != nil {
		return engineerr.Wrap(engineerr.KindSinkUnreachable, "pending-change submitter: local fallback write failed", saveErr)
	}
	return nil
}

func (s *Submitter) post(ctx context.Context, pc PendingChange) error {
	body, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("pendingchange: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ReviewServiceURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pendingchange: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pendingchange: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pendingchange: review service returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Submitter) retry(ctx context.Context, op backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.maxRetries()), ctx)
	return backoff.Retry(op, policy)
}
