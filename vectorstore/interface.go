// Package vectorstore provides an accelerated nearest-neighbor backend
// for the pieces of the engine that would otherwise fall back to a
// linear cosine-similarity scan: the tree's leaf-embedding index
// (tree.Inserter's nearest-parent search) and the retriever's
// similarity-mode tree search (retriever.searchTree). Both keep their
// linear-scan implementation as the default; a Store is an opt-in
// accelerator wired in by the caller, generalized from the teacher's
// VectorStore interface to this module's per-tree, per-embedding-model
// node layout instead of a single flat collection of ID'd documents.
package vectorstore

import "context"

// Store indexes node embeddings for fast approximate nearest-neighbor
// lookup, partitioned by tree and by embedding model since a node may
// carry embeddings from more than one model (schema.Node.Embeddings)
// and different trees never need to be searched together.
type Store interface {
	// Upsert indexes (or reindexes) a node's embedding for modelID
	// under treeID. Callers pass the vector directly rather than the
	// whole node, since only the embedding and the node's stable
	// position within its tree need to survive the round trip.
	Upsert(ctx context.Context, treeID, modelID string, index int, vector []float64) error

	// Query returns the topK nodes under treeID/modelID ranked by
	// descending similarity to vector.
	Query(ctx context.Context, treeID, modelID string, vector []float64, topK int) ([]Match, error)

	// Delete removes a previously-upserted node from the index. It is
	// a no-op if the node was never indexed.
	Delete(ctx context.Context, treeID, modelID string, index int) error
}

// Match is one ranked hit from Store.Query: a node's position within
// its tree (schema.Node.Index) and its similarity score against the
// query vector. The caller resolves Index back to a *schema.Node via
// tree.Tree.Node, since the store itself holds no node content.
type Match struct {
	Index int
	Score float64
}
