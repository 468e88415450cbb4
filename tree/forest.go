package tree

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/store"
)

const forestCollection = "tree_forest"

// Forest is a named map of trees plus a default tree id (spec 4.8).
// Concurrency: each Tree guards its own state with an RWMutex, so
// readers on one tree never block a writer on another; the Forest's
// own mutex only protects the map of tree ids itself.
type Forest struct {
	mu          sync.RWMutex
	trees       map[string]*Tree
	defaultTree string
}

// NewForest creates an empty Forest.
func NewForest() *Forest {
	return &Forest{trees: make(map[string]*Tree)}
}

// AddTree registers a tree under its own id. If no default tree is
// set yet, this tree becomes the default.
func (f *Forest) AddTree(t *Tree) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trees[t.ID()] = t
	if f.defaultTree == "" {
		f.defaultTree = t.ID()
	}
}

// GetTree returns the tree for id, or nil if absent.
func (f *Forest) GetTree(id string) *Tree {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.trees[id]
}

// DefaultTree returns the Forest's default tree, or nil if empty.
func (f *Forest) DefaultTree() *Tree {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.defaultTree == "" {
		return nil
	}
	return f.trees[f.defaultTree]
}

// SetDefaultTree designates which registered tree id is the default.
func (f *Forest) SetDefaultTree(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trees[id]; !ok {
		return engineerr.New(engineerr.KindInvalidTree, "forest: unknown tree id")
	}
	f.defaultTree = id
	return nil
}

// ListTrees returns the ids of every registered tree.
func (f *Forest) ListTrees() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.trees))
	for id := range f.trees {
		ids = append(ids, id)
	}
	return ids
}

// treeSnapshot is the on-disk shape of a Tree: enough to rebuild the
// arena and layer index without exposing the mutex.
type treeSnapshot struct {
	ID           string               `json:"id"`
	Nodes        map[int]snapshotNode `json:"nodes"`
	LayerToNodes map[int][]int        `json:"layer_to_nodes"`
	RootIndices  []int                `json:"root_indices"`
	NextIndex    int                  `json:"next_index"`
	NumLayers    int                  `json:"num_layers"`
}

type snapshotNode struct {
	Index      int                  `json:"index"`
	Text       string               `json:"text"`
	Children   []int                `json:"children,omitempty"`
	Embeddings map[string][]float64 `json:"embeddings,omitempty"`
	Keywords   []string             `json:"keywords,omitempty"`
	Metadata   map[string]any       `json:"metadata,omitempty"`
}

// Save persists every tree in the Forest to kv under one collection
// entry per tree id, the pattern the teacher uses for its ingestion
// cache (ingestion/cache.go's Persist/LoadFromPath).
func (f *Forest) Save(ctx context.Context, kv store.KVStore) error {
	f.mu.RLock()
	trees := make([]*Tree, 0, len(f.trees))
	for _, t := range f.trees {
		trees = append(trees, t)
	}
	defaultTree := f.defaultTree
	f.mu.RUnlock()

	for _, t := range trees {
		snap := snapshotFromTree(t)
		raw, err := json.Marshal(snap)
		if err != nil {
			return engineerr.Wrap(engineerr.KindCacheCorruption, "forest: marshal tree snapshot failed", err)
		}
		var value store.StoredValue
		if err := json.Unmarshal(raw, &value); err != nil {
			return engineerr.Wrap(engineerr.KindCacheCorruption, "forest: re-decode tree snapshot failed", err)
		}
		if err := kv.Put(ctx, t.ID(), value, forestCollection); err != nil {
			return err
		}
	}

	meta := store.StoredValue{"default_tree_id": defaultTree}
	return kv.Put(ctx, "__forest_meta__", meta, forestCollection)
}

// Load rebuilds a Forest from a KVStore previously populated by Save.
// treeIDs names which collection entries to load; the caller is
// expected to know its own tree ids (there is no directory listing on
// store.KVStore). Any decoded tree is validated before being
// registered — spec 4.8's "safe deserialization path" requirement.
func Load(ctx context.Context, kv store.KVStore, treeIDs []string) (*Forest, error) {
	f := NewForest()

	for _, id := range treeIDs {
		value, err := kv.Get(ctx, id, forestCollection)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.KindCacheCorruption, "forest: re-encode stored tree failed", err)
		}
		var snap treeSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, engineerr.Wrap(engineerr.KindCacheCorruption, "forest: decode tree snapshot failed", err)
		}
		t := treeFromSnapshot(snap)
		if err := t.Validate(); err != nil {
			return nil, err
		}
		f.AddTree(t)
	}

	if meta, err := kv.Get(ctx, "__forest_meta__", forestCollection); err == nil && meta != nil {
		if defaultID, ok := meta["default_tree_id"].(string); ok && defaultID != "" {
			_ = f.SetDefaultTree(defaultID)
		}
	}

	return f, nil
}

func snapshotFromTree(t *Tree) treeSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := make(map[int]snapshotNode, len(t.nodes))
	for idx, n := range t.nodes {
		nodes[idx] = snapshotNode{
			Index:      n.Index,
			Text:       n.Text,
			Children:   n.Children,
			Embeddings: n.Embeddings,
			Keywords:   n.Keywords,
			Metadata:   n.Metadata,
		}
	}
	layerToNodes := make(map[int][]int, len(t.layerToNodes))
	for layer, indices := range t.layerToNodes {
		layerToNodes[layer] = append([]int(nil), indices...)
	}

	return treeSnapshot{
		ID:           t.id,
		Nodes:        nodes,
		LayerToNodes: layerToNodes,
		RootIndices:  append([]int(nil), t.rootIndices...),
		NextIndex:    t.nextIndex,
		NumLayers:    t.numLayers,
	}
}

func treeFromSnapshot(snap treeSnapshot) *Tree {
	t := NewTree(snap.ID)
	for idx, sn := range snap.Nodes {
		t.nodes[idx] = &schema.Node{
			Index:      sn.Index,
			Text:       sn.Text,
			Children:   sn.Children,
			Embeddings: sn.Embeddings,
			Keywords:   sn.Keywords,
			Metadata:   sn.Metadata,
		}
	}
	t.layerToNodes = snap.LayerToNodes
	t.rootIndices = snap.RootIndices
	t.nextIndex = snap.NextIndex
	t.numLayers = snap.NumLayers
	return t
}
