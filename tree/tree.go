// Package tree implements the hierarchical knowledge tree: an
// arena-indexed Node collection per layer (spec section 3), the
// cluster-mode Tree Builder (spec 4.6), the Incremental Engine (spec
// 4.7), and a Forest of named trees (spec 4.8).
//
// The arena-by-index layout, and the bottom-up layer construction it
// supports, generalizes the teacher's index/tree.go TreeIndex, which
// grouped children by a fixed numChildren count and summarized each
// group into a parent. Here grouping comes from the cluster package
// instead of a fixed group size, and nodes carry the richer
// schema.Node shape (embeddings per model, keywords, provenance)
// instead of a bare doc-store reference.
package tree

import (
	"sort"
	"sync"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/schema"
)

// Tree is a named, layered collection of nodes. Layer 0 holds leaves;
// layer k>0 nodes have children exclusively in layer k-1 in
// cluster-tree mode (spec section 3 invariant).
type Tree struct {
	mu sync.RWMutex

	id           string
	nodes        map[int]*schema.Node
	layerToNodes map[int][]int // layer -> node indices, insertion order
	rootIndices  []int
	nextIndex    int
	numLayers    int
}

// NewTree creates an empty, named Tree.
func NewTree(id string) *Tree {
	return &Tree{
		id:           id,
		nodes:        make(map[int]*schema.Node),
		layerToNodes: make(map[int][]int),
	}
}

// ID returns the tree's identifier within its Forest.
func (t *Tree) ID() string {
	return t.id
}

// NumLayers returns the number of layers built so far (0 means only
// leaves exist).
func (t *Tree) NumLayers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.numLayers
}

// Node returns the node at index, or nil if absent.
func (t *Tree) Node(index int) *schema.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[index]
	if !ok {
		return nil
	}
	return n
}

// AllNodes returns every node, sorted by index, for deterministic
// iteration (spec 4.6 determinism requirement).
func (t *Tree) AllNodes() []*schema.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedNodesLocked(t.allIndicesLocked())
}

// LeafNodes returns layer-0 nodes, sorted by index.
func (t *Tree) LeafNodes() []*schema.Node {
	return t.LayerNodes(0)
}

// RootNodes returns the top-layer nodes, sorted by index.
func (t *Tree) RootNodes() []*schema.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := append([]int(nil), t.rootIndices...)
	return t.sortedNodesLocked(idx)
}

// LayerNodes returns the nodes at the given layer, sorted by index.
func (t *Tree) LayerNodes(layer int) []*schema.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := append([]int(nil), t.layerToNodes[layer]...)
	return t.sortedNodesLocked(idx)
}

// Children returns the immediate children of a node.
func (t *Tree) Children(index int) []*schema.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[index]
	if !ok {
		return nil
	}
	idx := append([]int(nil), n.Children...)
	return t.sortedNodesLocked(idx)
}

// AddNode installs a node at the given layer, assigning it the next
// available index. It returns the assigned index. Callers hold the
// tree's write lock for the duration of a layer install via WithLayer
// so a reader never observes a half-installed layer (spec 4.8: "layer
// installation is the publication point").
func (t *Tree) AddNode(n *schema.Node, layer int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addNodeLocked(n, layer)
}

func (t *Tree) addNodeLocked(n *schema.Node, layer int) int {
	idx := t.nextIndex
	t.nextIndex++
	n.Index = idx
	t.nodes[idx] = n
	t.layerToNodes[layer] = append(t.layerToNodes[layer], idx)
	if layer > t.numLayers {
		t.numLayers = layer
	}
	return idx
}

// InstallLayer atomically replaces the set of root nodes with the
// indices just built at the given layer, the publication step
// described in spec 4.8. Callers pass the indices returned by AddNode
// for the nodes created at this layer.
func (t *Tree) InstallLayer(layer int, indices []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rootIndices = append([]int(nil), indices...)
	if layer > t.numLayers {
		t.numLayers = layer
	}
}

// Layer reports which layer a node belongs to, or -1 if the node is
// absent. Used by callers that need the layer of an arbitrary index
// (e.g. the incremental engine locating a layer-1 parent).
func (t *Tree) Layer(index int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for layer, indices := range t.layerToNodes {
		for _, i := range indices {
			if i == index {
				return layer
			}
		}
	}
	return -1
}

// ReplaceNode overwrites the stored node at an existing index in
// place, used by the incremental engine to update a parent's
// embedding/summary/keywords without changing its index or layer.
func (t *Tree) ReplaceNode(n *schema.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[n.Index]; !ok {
		return engineerr.New(engineerr.KindInvalidTree, "tree: cannot replace unknown node index")
	}
	t.nodes[n.Index] = n
	return nil
}

// AppendChild adds childIndex to parent's children set, used when the
// incremental engine attaches a new leaf to an existing layer-1 node.
func (t *Tree) AppendChild(parentIndex, childIndex int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, ok := t.nodes[parentIndex]
	if !ok {
		return engineerr.New(engineerr.KindInvalidTree, "tree: unknown parent index")
	}
	if _, ok := t.nodes[childIndex]; !ok {
		return engineerr.New(engineerr.KindInvalidTree, "tree: unknown child index")
	}
	parent.Children = append(parent.Children, childIndex)
	return nil
}

// NextIndex previews the index the next AddNode call would assign,
// without reserving it.
func (t *Tree) NextIndex() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIndex
}

func (t *Tree) allIndicesLocked() []int {
	idx := make([]int, 0, len(t.nodes))
	for i := range t.nodes {
		idx = append(idx, i)
	}
	return idx
}

func (t *Tree) sortedNodesLocked(indices []int) []*schema.Node {
	sort.Ints(indices)
	out := make([]*schema.Node, 0, len(indices))
	for _, i := range indices {
		if n, ok := t.nodes[i]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the invariants in spec section 3: every child index
// exists, no cycles, and layer(n) = max(layer(c) for c in children)+1
// in cluster-tree mode nodes (nodes with Children set at all).
func (t *Tree) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodeLayer := make(map[int]int, len(t.nodes))
	for layer, indices := range t.layerToNodes {
		for _, i := range indices {
			nodeLayer[i] = layer
		}
	}

	for idx, n := range t.nodes {
		for _, c := range n.Children {
			if _, ok := t.nodes[c]; !ok {
				return engineerr.New(engineerr.KindInvalidTree, "tree: dangling child reference")
			}
		}
		if len(n.Children) > 0 {
			maxChild := -1
			for _, c := range n.Children {
				if nodeLayer[c] > maxChild {
					maxChild = nodeLayer[c]
				}
			}
			if nodeLayer[idx] != maxChild+1 {
				return engineerr.New(engineerr.KindInvalidTree, "tree: node layer is not one above its highest child layer")
			}
		}
		if err := t.checkAcyclicLocked(idx, make(map[int]bool)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) checkAcyclicLocked(start int, visiting map[int]bool) error {
	if visiting[start] {
		return engineerr.New(engineerr.KindInvalidTree, "tree: cycle detected in parent-child graph")
	}
	visiting[start] = true
	n, ok := t.nodes[start]
	if !ok {
		return nil
	}
	for _, c := range n.Children {
		if err := t.checkAcyclicLocked(c, visiting); err != nil {
			return err
		}
	}
	delete(visiting, start)
	return nil
}
