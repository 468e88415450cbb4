package retriever

import (
	"context"

	"github.com/kgraptor/engine/graph"
)

// hybridGraphTree combines graph traversal with direct tree similarity
// search (spec 4.12 "Hybrid graph+tree"): entities already identified
// in the query (QueryAnalysis.EntityMentions) are traversed up to
// expansion_hops, their reachable nodes are collected via
// graph.Store.ExpandToNodeIDs, and those are combined with a direct
// similarity search using graph_weight/tree_weight. Node ids are
// resolved against the forest's default tree, since Entity.NodeIDs are
// plain indices rather than (tree, index) pairs.
func (r *Retriever) hybridGraphTree(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	vec, err := r.embedModel.Client.Embed(ctx, analysis.Query)
	if err != nil {
		return nil, err
	}
	treeResults := r.searchAllTrees(ctx, vec, opts.topK())

	if r.graphStore == nil || len(analysis.EntityMentions) == 0 {
		return treeResults, nil
	}

	graphWeight, treeWeight := opts.graphTreeWeights()
	now := opts.now()
	traverseOpts := graph.TraverseOptions{
		MaxHops:   opts.expansionHops(),
		Direction: graph.DirectionBoth,
		Now:       now,
	}

	nodeIDs := map[int]bool{}
	for _, entityID := range analysis.EntityMentions {
		for _, id := range r.graphStore.ExpandToNodeIDs(entityID, traverseOpts) {
			nodeIDs[id] = true
		}
	}

	defaultTree := r.forest.DefaultTree()
	var graphResults []ScoredNode
	if defaultTree != nil {
		for id := range nodeIDs {
			if n := defaultTree.Node(id); n != nil {
				graphResults = append(graphResults, ScoredNode{Node: n, TreeID: defaultTree.ID(), Score: 1.0})
			}
		}
	}

	return weightedMerge(treeResults, treeWeight, graphResults, graphWeight), nil
}

// weightedMerge scales each set's scores by its weight before unioning
// by (treeID, index), taking the max contribution per node rather than
// summing, so a node strong in one signal isn't diluted by being absent
// from the other.
func weightedMerge(a []ScoredNode, weightA float64, b []ScoredNode, weightB float64) []ScoredNode {
	scaledA := scale(a, weightA)
	scaledB := scale(b, weightB)
	return mergeByMaxScore(scaledA, scaledB)
}

func scale(nodes []ScoredNode, weight float64) []ScoredNode {
	out := make([]ScoredNode, len(nodes))
	for i, n := range nodes {
		n.Score *= weight
		out[i] = n
	}
	return out
}
