// Package chromem wraps github.com/philippgille/chromem-go as a
// vectorstore.Store, the embedded vector-similarity backing store
// the tree's leaf-embedding index and the incremental engine's
// nearest-parent search use when an accelerated backend is wired in
// instead of the default linear cosine-similarity scan.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/kgraptor/engine/vectorstore"
)

// Store is a vectorstore.Store backed by chromem-go, partitioning
// nodes into one chromem collection per (treeID, modelID) pair rather
// than the teacher's single flat collection, since this module's
// nodes carry one embedding per model (schema.Node.Embeddings) instead
// of a single embedding per document.
type Store struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// New creates a Store. If persistPath is empty the store is
// in-memory only.
func New(persistPath string) (*Store, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("chromem: open persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}
	return &Store{db: db, collections: make(map[string]*chromem.Collection)}, nil
}

func collectionName(treeID, modelID string) string {
	return treeID + "::" + modelID
}

// collection returns the chromem collection for (treeID, modelID),
// creating it on first use. We pass a nil embedding func because
// embeddings always arrive precomputed from embedding.Client.
func (s *Store) collection(treeID, modelID string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := collectionName(treeID, modelID)
	if coll, ok := s.collections[name]; ok {
		return coll, nil
	}
	coll, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: get or create collection %s: %w", name, err)
	}
	s.collections[name] = coll
	return coll, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Upsert indexes vector under (treeID, modelID) as the document whose
// ID is index's decimal string. Re-adding an existing index
// overwrites its vector, since chromem-go keys documents by ID.
func (s *Store) Upsert(ctx context.Context, treeID, modelID string, index int, vector []float64) error {
	coll, err := s.collection(treeID, modelID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        strconv.Itoa(index),
		Embedding: toFloat32(vector),
	}
	if err := coll.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: upsert %s/%s#%d: %w", treeID, modelID, index, err)
	}
	return nil
}

// Query returns the topK nearest documents under (treeID, modelID).
func (s *Store) Query(ctx context.Context, treeID, modelID string, vector []float64, topK int) ([]vectorstore.Match, error) {
	coll, err := s.collection(treeID, modelID)
	if err != nil {
		return nil, err
	}
	if n := coll.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}

	res, err := coll.QueryEmbedding(ctx, toFloat32(vector), topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query %s/%s: %w", treeID, modelID, err)
	}

	matches := make([]vectorstore.Match, 0, len(res))
	for _, doc := range res {
		index, err := strconv.Atoi(doc.ID)
		if err != nil {
			continue
		}
		matches = append(matches, vectorstore.Match{Index: index, Score: float64(doc.Similarity)})
	}
	return matches, nil
}

// Delete removes index's document under (treeID, modelID).
func (s *Store) Delete(ctx context.Context, treeID, modelID string, index int) error {
	coll, err := s.collection(treeID, modelID)
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, nil, nil, strconv.Itoa(index)); err != nil {
		return fmt.Errorf("chromem: delete %s/%s#%d: %w", treeID, modelID, index, err)
	}
	return nil
}

var _ vectorstore.Store = (*Store)(nil)
