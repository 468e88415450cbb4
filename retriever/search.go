package retriever

import (
	"sort"

	"github.com/samber/lo"

	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/tree"
)

// searchLayer scores every node at layer against queryVec using
// modelID's embedding, returning the topK highest-scoring nodes sorted
// descending. Nodes missing an embedding for modelID are skipped.
func searchLayer(t *tree.Tree, layer int, queryVec []float64, modelID string, topK int) []ScoredNode {
	return scoreAndSort(t.ID(), t.LayerNodes(layer), queryVec, modelID, topK)
}

// searchTree scores every node across all layers of t.
func searchTree(t *tree.Tree, queryVec []float64, modelID string, topK int) []ScoredNode {
	return scoreAndSort(t.ID(), t.AllNodes(), queryVec, modelID, topK)
}

func scoreAndSort(treeID string, nodes []*schema.Node, queryVec []float64, modelID string, topK int) []ScoredNode {
	scored := make([]ScoredNode, 0, len(nodes))
	for _, n := range nodes {
		vec, ok := n.Embeddings[modelID]
		if !ok {
			continue
		}
		sim, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			continue
		}
		scored = append(scored, ScoredNode{Node: n, TreeID: treeID, Score: sim})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// mergeByMaxScore unions several ranked result sets, keeping the
// highest score any set assigned to a given node — the spec 4.12
// "Execution" merge rule, adapted from the teacher's FusionRetriever
// simpleFusion (fusion.go), keyed here on (treeID, node.Index) since
// schema.Node carries no content hash.
func mergeByMaxScore(sets ...[]ScoredNode) []ScoredNode {
	merged := make(map[nodeKey]ScoredNode)
	for _, set := range sets {
		for _, sn := range set {
			key := nodeKey{sn.TreeID, sn.Node.Index}
			if existing, ok := merged[key]; !ok || sn.Score > existing.Score {
				merged[key] = sn
			}
		}
	}
	out := lo.Values(merged)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

type nodeKey struct {
	treeID string
	index  int
}
