// Package embedding implements the Embedder capability (spec 4.2): turn
// leaf and query text into dense vectors, with a persistent cache and
// retry policy in front of whichever provider is configured.
package embedding

import "context"

// Client is the Embedder capability. Every provider and the cache
// wrapper implement it identically, so callers never branch on which
// backend is in play.
type Client interface {
	// Embed returns the embedding vector for one piece of text.
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch embeds many texts in as few provider calls as the
	// backend allows.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	// Dimensionality is the length of vectors this client returns.
	Dimensionality() int
	// ModelID identifies the embedding model, used as part of the cache
	// key so switching models never serves a stale vector.
	ModelID() string
}
