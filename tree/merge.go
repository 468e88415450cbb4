package tree

import (
	"context"

	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/summarizer"
)

// Merge brings every leaf of source into target via safe propagation
// (spec 4.7 "Merge."): source node indices are never reused, each leaf
// is cloned in as a fresh target leaf carrying its already-computed
// embeddings and keywords (no re-embedding), and is then run through
// the same attach-or-new-parent decision and upward propagation
// InsertLeaf uses. source's interior nodes are discarded entirely —
// target's hierarchy is authoritative — matching
// tree_merge.py's merge_trees(rebuild_upper_layers=False) index-remap
// behavior but propagating each leaf upward instead of concatenating
// layers verbatim. Merge returns the number of leaves merged, which
// must equal source.LeafNodes() count per the
// leaf_count_target_after = leaf_count_target_before + leaf_count_source
// invariant (spec 8).
func (ins *Inserter) Merge(ctx context.Context, target, source *Tree) (int, error) {
	leaves := source.LeafNodes()
	for _, leaf := range leaves {
		if err := ins.mergeLeaf(ctx, target, leaf); err != nil {
			return 0, err
		}
	}
	return len(leaves), nil
}

// mergeLeaf installs one already-embedded source leaf into target,
// reusing the attach-vs-new-parent branch InsertLeaf runs but skipping
// embedAll/keywordsFor since the leaf already carries both from its
// source tree.
func (ins *Inserter) mergeLeaf(ctx context.Context, t *Tree, src *schema.Node) error {
	leaf := src.Clone()
	leaf.Children = nil
	leafIndex := t.AddNode(leaf, 0)

	clusterVec := leaf.Embeddings[ins.cfg.ClusterModelID]
	bestIdx, bestSim, err := ins.nearestParent(ctx, t, clusterVec)
	if err != nil {
		return err
	}

	var affectedParent int
	if bestIdx >= 0 && bestSim >= ins.cfg.SimilarityThreshold {
		if err := t.AppendChild(bestIdx, leafIndex); err != nil {
			return err
		}
		affectedParent = bestIdx
		if err := ins.resummarizeNode(ctx, t, bestIdx, 1); err != nil {
			return err
		}
		if err := ins.indexLayer1(ctx, t, bestIdx); err != nil {
			return err
		}
	} else {
		abstract, err := ins.summarizer.SummarizeLayer(ctx, leaf.Text, summarizer.LayerDetails, ins.cfg.summarizationTokens())
		if err != nil {
			return engineerr.Wrap(engineerr.KindTransient, "merge: initial parent summary failed", err)
		}
		parent := &schema.Node{
			Text:       abstract,
			Children:   []int{leafIndex},
			Embeddings: leaf.Embeddings,
			Keywords:   append([]string(nil), leaf.Keywords...),
			Metadata:   map[string]any{},
			CreatedAt:  epoch(),
			UpdatedAt:  epoch(),
		}
		affectedParent = t.AddNode(parent, 1)
		if err := ins.indexLayer1(ctx, t, affectedParent); err != nil {
			return err
		}
	}

	return ins.propagateUpward(ctx, t, affectedParent)
}

// Compact runs the "scheduled compaction" alternative spec 4.7 names:
// collect every leaf from trees, discard all interior structure, and
// fully rebuild layers 1..N from scratch via b. Unlike Merge, this
// produces a hierarchy with no bias toward any one input tree's
// existing clusters, at the cost of a full rebuild instead of an
// incremental attach. Grounded on tree_merge.py's
// merge_trees(rebuild_upper_layers=True) path, which feeds merged
// leaves back through the cluster-tree builder rather than concatenating
// layers.
func Compact(ctx context.Context, b *Builder, treeID string, trees []*Tree) (*Tree, error) {
	var leaves []*schema.Node
	for _, t := range trees {
		leaves = append(leaves, t.LeafNodes()...)
	}
	return b.BuildFromLeaves(ctx, treeID, leaves)
}

// BuildFromLeaves runs the cluster-mode layer-construction loop
// starting from pre-built, pre-embedded leaves instead of raw chunks,
// reindexing each into a fresh Tree first. It is BuildFromChunks' bulk
// rebuild counterpart, used by Compact and by any caller that already
// has leaf nodes in hand (e.g. a periodic full rebuild from a forest's
// accumulated trees).
func (b *Builder) BuildFromLeaves(ctx context.Context, treeID string, leaves []*schema.Node) (*Tree, error) {
	t := NewTree(treeID)
	for _, leaf := range leaves {
		n := leaf.Clone()
		n.Children = nil
		t.AddNode(n, 0)
	}
	return b.runLayers(ctx, t)
}
