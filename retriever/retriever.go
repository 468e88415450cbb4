package retriever

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kgraptor/engine/graph"
	"github.com/kgraptor/engine/llm"
	"github.com/kgraptor/engine/observation"
	"github.com/kgraptor/engine/postprocessor"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/tree"
	"github.com/kgraptor/engine/vectorstore"
)

// Retriever executes the full spec 4.12 pipeline — query analysis, mode
// selection, strategy execution, fusion, and ensemble reranking — over
// a tree.Forest and an optional graph.Store, generalizing the
// teacher's FusionRetriever (fusion.go) from a generic list of
// sub-retrievers into the fixed set of domain strategies the spec
// names.
type Retriever struct {
	forest         *tree.Forest
	graphStore     *graph.Store
	embedModel     tree.EmbeddingModel
	generator      llm.LLM
	postprocessors *postprocessor.PostprocessorChain
	index          vectorstore.Store
	observations   *observation.Sink
}

// NewRetriever creates a Retriever. graphStore and generator may be
// nil: without a graph store the hybrid and incident strategies fall
// back to plain tree similarity search, and without a generator
// multi-query uses heuristic reformulations while HyDE searches with the
// query's own embedding only.
func NewRetriever(forest *tree.Forest, graphStore *graph.Store, embedModel tree.EmbeddingModel, generator llm.LLM) *Retriever {
	return &Retriever{forest: forest, graphStore: graphStore, embedModel: embedModel, generator: generator}
}

// WithPostprocessors wires pluggable postprocessing steps (PII masking,
// keyword filters, an LLM or cross-encoder reranker — see
// postprocessor/) to run after the ensemble reranker. They operate on
// the plain schema.NodeWithScore/QueryBundle pair rather than
// ScoredNode, since they don't need the tree-origin or per-strategy
// score breakdown the retrieval pipeline itself tracks.
func (r *Retriever) WithPostprocessors(chain *postprocessor.PostprocessorChain) *Retriever {
	r.postprocessors = chain
	return r
}

// WithIndex wires an accelerated vectorstore.Store as the similarity
// search backend: searchAllTrees then queries it per tree instead of
// scoring every node in the tree directly. Without one, the linear
// scan over tree.AllNodes stays the default.
func (r *Retriever) WithIndex(store vectorstore.Store) *Retriever {
	r.index = store
	return r
}

// WithObservations wires the observation sink (spec 4.14): every
// Retrieve call then records a query_success or query_failure event
// once reranking and postprocessing settle on the final result set, so
// the importance-update process consuming the sink always sees a
// complete history without the caller needing to call record_query_*
// itself for the common case. Without one, Retrieve records nothing.
func (r *Retriever) WithObservations(sink *observation.Sink) *Retriever {
	r.observations = sink
	return r
}

// Retrieve runs the pipeline end to end for one query.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]ScoredNode, error) {
	analysis := r.analyzeWithEntities(query)
	modes := SelectModes(analysis, opts.ExplicitMode)

	resultSets, err := r.runStrategies(ctx, analysis, modes, opts)
	if err != nil {
		return nil, err
	}

	fused := mergeByMaxScore(resultSets...)
	reranked := EnsembleRerank(fused, opts)
	if len(reranked) > opts.topK() {
		reranked = reranked[:opts.topK()]
	}

	if r.postprocessors != nil {
		reranked, err = r.applyPostprocessors(ctx, reranked, query)
		if err != nil {
			return nil, err
		}
	}

	r.recordOutcome(ctx, query, reranked)
	return reranked, nil
}

// recordOutcome appends a query_success/query_failure observation for
// this Retrieve call when a sink is wired (spec 4.14). An empty result
// set after reranking is treated as a failure; anything else a success
// — the importance-update process that consumes these decides how much
// weight to give each, this call just reports what happened.
func (r *Retriever) recordOutcome(ctx context.Context, query string, results []ScoredNode) {
	if r.observations == nil {
		return
	}
	refs := make([]observation.NodeRef, len(results))
	for i, sn := range results {
		refs[i] = observation.NodeRef{TreeID: sn.TreeID, Index: sn.Node.Index, Score: sn.Score}
	}
	if len(results) == 0 {
		r.observations.RecordQueryFailure(ctx, query, refs)
		return
	}
	r.observations.RecordQuerySuccess(ctx, query, refs)
}

// metaRetrieverTreeID is a transient metadata key used only to carry
// TreeID across the schema.NodeWithScore boundary; stripped again once
// postprocessing returns since it isn't a property of the node itself.
const metaRetrieverTreeID = "_retriever_tree_id"

// applyPostprocessors converts to/from schema.NodeWithScore at the
// boundary, since ScoredNode carries TreeID/Sources that
// postprocessor.NodePostprocessor has no use for and schema.Node has no
// room to hold. TreeID rides through as transient metadata because a
// postprocessor may filter or reorder nodes, so it can't be recovered
// by position alone.
func (r *Retriever) applyPostprocessors(ctx context.Context, nodes []ScoredNode, query string) ([]ScoredNode, error) {
	withScores := make([]schema.NodeWithScore, len(nodes))
	for i, sn := range nodes {
		n := *sn.Node
		if n.Metadata == nil {
			n.Metadata = make(map[string]interface{}, 1)
		} else {
			cloned := make(map[string]interface{}, len(n.Metadata)+1)
			for k, v := range n.Metadata {
				cloned[k] = v
			}
			n.Metadata = cloned
		}
		n.Metadata[metaRetrieverTreeID] = sn.TreeID
		withScores[i] = schema.NodeWithScore{Node: n, Score: sn.Score}
	}

	bundle := &schema.QueryBundle{QueryString: query}
	processed, err := r.postprocessors.PostprocessNodes(ctx, withScores, bundle)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredNode, len(processed))
	for i, nws := range processed {
		n := nws.Node
		treeID, _ := n.Metadata[metaRetrieverTreeID].(string)
		delete(n.Metadata, metaRetrieverTreeID)
		out[i] = ScoredNode{Node: &n, TreeID: treeID, Score: nws.Score}
	}
	return out, nil
}

// analyzeWithEntities runs AnalyzeQuery and, when a graph store is
// wired, additionally resolves content keywords against it for the
// "optionally extract entity mentions via graph lookup" clause of spec
// 4.12's query analysis.
func (r *Retriever) analyzeWithEntities(query string) QueryAnalysis {
	analysis := AnalyzeQuery(query)
	if r.graphStore == nil {
		return analysis
	}
	seen := make(map[string]bool)
	for _, kw := range analysis.ContentKeywords {
		if e, ok := r.graphStore.FindEntity(kw); ok && !seen[e.ID] {
			seen[e.ID] = true
			analysis.EntityMentions = append(analysis.EntityMentions, e.ID)
		}
	}
	return analysis
}

// runStrategies executes each selected mode, honoring
// opts.ParallelStrategies (spec 4.12 "Execution": "run concurrently
// with a single timeout budget; on timeout, use partial results").
func (r *Retriever) runStrategies(ctx context.Context, analysis QueryAnalysis, modes []Mode, opts RetrieveOptions) ([][]ScoredNode, error) {
	if opts.StrategyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.StrategyTimeout)
		defer cancel()
	}

	if !opts.ParallelStrategies || len(modes) <= 1 {
		results := make([][]ScoredNode, 0, len(modes))
		for _, mode := range modes {
			nodes, err := r.runStrategy(ctx, mode, analysis, opts)
			if err != nil && ctx.Err() == nil {
				return nil, err
			}
			results = append(results, nodes)
		}
		return results, nil
	}

	results := make([][]ScoredNode, len(modes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range modes {
		i, mode := i, mode
		g.Go(func() error {
			nodes, err := r.runStrategy(gctx, mode, analysis, opts)
			if err != nil {
				// On timeout or partial failure, keep whatever this
				// strategy already had rather than failing the whole
				// call (spec 4.12: "on timeout, use partial results").
				return nil
			}
			results[i] = nodes
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (r *Retriever) runStrategy(ctx context.Context, mode Mode, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	switch mode {
	case ModeMultiQuery:
		return r.multiQuery(ctx, analysis, opts)
	case ModeHyDE:
		return r.hyde(ctx, analysis, opts)
	case ModeAdaptive:
		return r.adaptiveDepth(ctx, analysis, opts)
	case ModeHybrid:
		return r.hybridGraphTree(ctx, analysis, opts)
	case ModeIncident:
		return r.incidentAware(ctx, analysis, opts)
	default:
		return r.similarityOnly(ctx, analysis, opts)
	}
}

// similarityOnly runs a single direct tree similarity search, the
// fallback when no other strategy applies.
func (r *Retriever) similarityOnly(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	vec, err := r.embedModel.Client.Embed(ctx, analysis.Query)
	if err != nil {
		return nil, err
	}
	return r.searchAllTrees(ctx, vec, opts.topK()), nil
}

// searchAllTrees runs a leaf-and-interior similarity search across
// every tree in the forest and unions the results. When an
// accelerated index is wired via WithIndex it is queried per tree
// instead of falling back to the linear scan in searchTree.
func (r *Retriever) searchAllTrees(ctx context.Context, vec []float64, topK int) []ScoredNode {
	var sets [][]ScoredNode
	for _, id := range r.forest.ListTrees() {
		t := r.forest.GetTree(id)
		if t == nil {
			continue
		}
		sets = append(sets, r.searchOneTree(ctx, t, vec, topK))
	}
	return mergeByMaxScore(sets...)
}

// searchOneTree queries the wired index for t, if any, falling back to
// searchTree's linear scan when no index is wired or the index
// returns nothing indexed for this tree/model yet.
func (r *Retriever) searchOneTree(ctx context.Context, t *tree.Tree, vec []float64, topK int) []ScoredNode {
	if r.index == nil {
		return searchTree(t, vec, r.embedModel.ID, topK)
	}

	matches, err := r.index.Query(ctx, t.ID(), r.embedModel.ID, vec, topK)
	if err != nil || len(matches) == 0 {
		return searchTree(t, vec, r.embedModel.ID, topK)
	}

	scored := make([]ScoredNode, 0, len(matches))
	for _, m := range matches {
		if n := t.Node(m.Index); n != nil {
			scored = append(scored, ScoredNode{Node: n, TreeID: t.ID(), Score: m.Score})
		}
	}
	return scored
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
