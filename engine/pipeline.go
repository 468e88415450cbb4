// Package engine wires the engine's pieces into the document-ingestion
// pipeline spec 4.11 and 4.13 describe only from the conflict
// resolver's point of view: analyze a chunk, find what in the tree it
// resembles, resolve the conflict, then apply whatever the resolution
// decided — mutate the existing node, insert the new one, or hand the
// pair to a human via the pending-change submitter. Generalized from
// the teacher's IngestionPipeline (ingestion/pipeline.go), which chains
// a fixed TransformComponent list plus a docstore/vector-store
// dedup step, into this fixed five-stage chain of domain-aware steps.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kgraptor/engine/analyzer"
	"github.com/kgraptor/engine/conflict"
	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/pendingchange"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/tree"
	"github.com/kgraptor/engine/vectorstore"
)

// Config configures an Engine's ingestion behavior.
type Config struct {
	// ClusterModelID selects which of Chunk's embeddings is compared
	// against existing nodes for conflict-candidate matching; must match
	// the Inserter's own IncrementalConfig.ClusterModelID.
	ClusterModelID string
	// MatchSimilarityThreshold drops candidates below it before they
	// ever reach the conflict resolver (spec 4.11 step 1, mirrored here
	// since the resolver expects pre-filtered matches).
	MatchSimilarityThreshold float64
	// MaxMatches bounds how many existing nodes are offered to the
	// resolver as candidates.
	MaxMatches int
	// Org/Team route a flag_review outcome's Pending Change (spec 4.13).
	Org, Team, RequestedBy string
}

func (c Config) matchSimilarityThreshold() float64 {
	if c.MatchSimilarityThreshold > 0 {
		return c.MatchSimilarityThreshold
	}
	return 0.75
}

func (c Config) maxMatches() int {
	if c.MaxMatches > 0 {
		return c.MaxMatches
	}
	return 5
}

// Engine orchestrates ingestion: find candidates, analyze, resolve
// conflicts, apply the outcome.
type Engine struct {
	forest    *tree.Forest
	inserter  *tree.Inserter
	analyzer  *analyzer.Analyzer
	resolver  *conflict.Resolver
	submitter *pendingchange.Submitter
	index     vectorstore.Store
	embedder  embedding.Client
	cfg       Config
}

// New creates an Engine. submitter may be nil, in which case a
// flag_review outcome is dropped with no external effect beyond
// leaving the existing node untouched — callers that care about spec
// 4.13 should always wire one.
func New(forest *tree.Forest, inserter *tree.Inserter, az *analyzer.Analyzer, resolver *conflict.Resolver, submitter *pendingchange.Submitter, embedder embedding.Client, cfg Config) *Engine {
	return &Engine{forest: forest, inserter: inserter, analyzer: az, resolver: resolver, submitter: submitter, embedder: embedder, cfg: cfg}
}

// WithIndex wires an accelerated vectorstore.Store as the
// candidate-matching backend for IngestChunk, the same opt-in shape
// tree.Inserter and retriever.Retriever use; without one, candidate
// matching falls back to a linear scan over the tree's leaves.
func (e *Engine) WithIndex(store vectorstore.Store) *Engine {
	e.index = store
	return e
}

// IngestChunk runs one chunk through the full pipeline: embed, find
// existing candidates, analyze, resolve, apply.
func (e *Engine) IngestChunk(ctx context.Context, treeID string, c tree.Chunk) error {
	t := e.forest.GetTree(treeID)
	if t == nil {
		return engineerr.New(engineerr.KindValidation, fmt.Sprintf("engine: unknown tree %q", treeID))
	}

	vec, err := e.embedder.Embed(ctx, c.Text)
	if err != nil {
		return fmt.Errorf("engine: embed chunk: %w", err)
	}

	matches, err := e.findMatches(ctx, t, vec)
	if err != nil {
		return fmt.Errorf("engine: find candidate matches: %w", err)
	}

	result, err := e.analyzer.Analyze(ctx, analyzer.Chunk{Text: c.Text, SourceURL: c.SourceID, ChunkID: c.DocID})
	if err != nil {
		return fmt.Errorf("engine: analyze chunk: %w", err)
	}

	content := conflict.NewContent{
		Text:   c.Text,
		Source: c.SourceID,
		Analysis: &conflict.Analysis{
			KnowledgeType: string(result.KnowledgeType),
			Summary:       result.Summary,
			Importance:    result.Importance.Overall,
		},
	}

	outcome, err := e.resolver.Resolve(ctx, content, matches)
	if err != nil {
		return fmt.Errorf("engine: resolve conflict: %w", err)
	}
	if outcome == nil {
		return e.inserter.InsertLeaf(ctx, t, c)
	}

	return e.apply(ctx, t, c, content, matches, outcome)
}

// findMatches scores every existing leaf in t against vec, keeping the
// ones above the configured threshold as conflict.ExistingMatch
// candidates, preferring the wired index when present.
func (e *Engine) findMatches(ctx context.Context, t *tree.Tree, vec []float64) ([]conflict.ExistingMatch, error) {
	threshold := e.cfg.matchSimilarityThreshold()

	if e.index != nil {
		results, err := e.index.Query(ctx, t.ID(), e.cfg.ClusterModelID, vec, e.cfg.maxMatches())
		if err == nil && len(results) > 0 {
			matches := make([]conflict.ExistingMatch, 0, len(results))
			for _, m := range results {
				if m.Score < threshold {
					continue
				}
				if n := t.Node(m.Index); n != nil {
					matches = append(matches, toExistingMatch(n, m.Score))
				}
			}
			return matches, nil
		}
	}

	var matches []conflict.ExistingMatch
	for _, n := range t.LeafNodes() {
		candidateVec, ok := n.Embeddings[e.cfg.ClusterModelID]
		if !ok {
			continue
		}
		sim, err := embedding.CosineSimilarity(vec, candidateVec)
		if err != nil || sim < threshold {
			continue
		}
		matches = append(matches, toExistingMatch(n, sim))
	}
	if len(matches) > e.cfg.maxMatches() {
		matches = matches[:e.cfg.maxMatches()]
	}
	return matches, nil
}

func toExistingMatch(n *schema.Node, score float64) conflict.ExistingMatch {
	var source string
	if n.OriginalContentRef != nil {
		source = n.OriginalContentRef.SourceURL
	}
	if source == "" {
		source, _ = n.Metadata[schema.MetaSourceURL].(string)
	}
	return conflict.ExistingMatch{
		NodeID:          n.Index,
		Content:         n.Text,
		Source:          source,
		UpdatedAt:       n.UpdatedAt,
		SimilarityScore: score,
	}
}

// apply carries out the resolver's decision against t, generalizing
// the teacher's single "choose a parent" action into the spec 4.11 set
// of five.
func (e *Engine) apply(ctx context.Context, t *tree.Tree, c tree.Chunk, content conflict.NewContent, matches []conflict.ExistingMatch, outcome *conflict.Outcome) error {
	switch outcome.Recommendation {
	case conflict.RecommendationSkip:
		return nil

	case conflict.RecommendationReplace, conflict.RecommendationMerge:
		return e.applyTextUpdate(t, outcome)

	case conflict.RecommendationAddAsNew:
		newLeafIndex := t.NextIndex()
		if err := e.inserter.InsertLeaf(ctx, t, c); err != nil {
			return err
		}
		return e.linkCrossReference(t, newLeafIndex, outcome)

	case conflict.RecommendationFlagReview:
		return e.submitPendingChange(ctx, content, matches, outcome)

	default:
		return e.inserter.InsertLeaf(ctx, t, c)
	}
}

// applyTextUpdate rewrites the matched node's text/source in place for
// replace/merge outcomes and rescales its importance per the
// resolution's ImportanceAdjustment. It does not recompute the node's
// embeddings or re-propagate a new summary upward — spec 4.11 scopes
// the resolver's output to the text decision, leaving re-embedding to
// whichever re-ingestion path next touches the node.
func (e *Engine) applyTextUpdate(t *tree.Tree, outcome *conflict.Outcome) error {
	n := t.Node(outcome.MatchedNodeID)
	if n == nil {
		return engineerr.New(engineerr.KindValidation, fmt.Sprintf("engine: matched node %d no longer exists", outcome.MatchedNodeID))
	}
	updated := *n
	updated.Text = outcome.ExistingText
	if outcome.ExistingSource != "" {
		if updated.Metadata == nil {
			updated.Metadata = make(map[string]any, 1)
		}
		updated.Metadata[schema.MetaSourceURL] = outcome.ExistingSource
	}
	updated.UpdatedAt = time.Now()
	if mult := outcome.ImportanceAdjustment.ExistingMultiplier; mult > 0 {
		updated.SetImportance(clamp01(updated.Importance() * mult))
	}
	return t.ReplaceNode(&updated)
}

// linkCrossReference records a "related_to" link from the new content
// back to the nearest existing match for an add_as_new outcome, as
// node metadata rather than a graph.Relationship since this links two
// tree nodes, not two named entities. newLeafIndex is the index
// InsertLeaf assigned the new leaf, captured by the caller before
// InsertLeaf ran since the leaf's index is never returned directly.
func (e *Engine) linkCrossReference(t *tree.Tree, newLeafIndex int, outcome *conflict.Outcome) error {
	if outcome.CrossReferenceNodeID == 0 {
		return nil
	}
	n := t.Node(newLeafIndex)
	if n == nil {
		return nil
	}
	updated := *n
	if updated.Metadata == nil {
		updated.Metadata = make(map[string]any, 1)
	}
	updated.Metadata["related_to"] = outcome.CrossReferenceNodeID
	return t.ReplaceNode(&updated)
}

// submitPendingChange emits a Pending Change for a flag_review outcome
// (spec 4.11 step 5, 4.13) without touching the existing node.
func (e *Engine) submitPendingChange(ctx context.Context, content conflict.NewContent, matches []conflict.ExistingMatch, outcome *conflict.Outcome) error {
	if e.submitter == nil {
		return nil
	}
	var match conflict.ExistingMatch
	for _, m := range matches {
		if m.NodeID == outcome.MatchedNodeID {
			match = m
			break
		}
	}
	pc := pendingchange.FromOutcome(content, match, outcome, e.cfg.Org, e.cfg.Team, e.cfg.RequestedBy, time.Now())
	return e.submitter.Submit(ctx, pc)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
