package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/kgraptor/engine/embedding"
)

// SimpleStore is an in-memory reference Store, generalized from the
// teacher's SimpleVectorStore to key on (treeID, modelID) collections
// of node-index -> embedding rather than a single flat map of ID'd
// documents. It scores with embedding.CosineSimilarity rather than
// reimplementing the formula.
type SimpleStore struct {
	mu          sync.RWMutex
	collections map[collectionKey]map[int][]float64
}

type collectionKey struct {
	treeID  string
	modelID string
}

// NewSimpleStore creates a new SimpleStore.
func NewSimpleStore() *SimpleStore {
	return &SimpleStore{collections: make(map[collectionKey]map[int][]float64)}
}

func (s *SimpleStore) Upsert(ctx context.Context, treeID, modelID string, index int, vector []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collectionKey{treeID, modelID}
	coll, ok := s.collections[key]
	if !ok {
		coll = make(map[int][]float64)
		s.collections[key] = coll
	}
	coll[index] = vector
	return nil
}

func (s *SimpleStore) Query(ctx context.Context, treeID, modelID string, vector []float64, topK int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collectionKey{treeID, modelID}]
	matches := make([]Match, 0, len(coll))
	for index, vec := range coll {
		score, err := embedding.CosineSimilarity(vector, vec)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Index: index, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *SimpleStore) Delete(ctx context.Context, treeID, modelID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[collectionKey{treeID, modelID}]; ok {
		delete(coll, index)
	}
	return nil
}

var _ Store = (*SimpleStore)(nil)
