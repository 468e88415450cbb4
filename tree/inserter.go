package tree

import (
	"context"
	"sort"

	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/keywords"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/summarizer"
	"github.com/kgraptor/engine/vectorstore"
)

// IncrementalConfig configures the Incremental Engine (spec 4.7).
type IncrementalConfig struct {
	// SimilarityThreshold gates layer-1 attach vs. new-parent creation.
	SimilarityThreshold float64
	// MaxChildrenForSummary bounds how many children are sampled when
	// rebuilding a parent's summary context.
	MaxChildrenForSummary int
	// MaxSummaryContextTokens caps total context tokens for a rebuilt
	// parent summary.
	MaxSummaryContextTokens int
	// ClusterModelID selects which embedding is used for similarity.
	ClusterModelID string
	SummarizationTokens int
}

func (c IncrementalConfig) maxChildrenForSummary() int {
	if c.MaxChildrenForSummary > 0 {
		return c.MaxChildrenForSummary
	}
	return 10
}

func (c IncrementalConfig) summarizationTokens() int {
	if c.SummarizationTokens > 0 {
		return c.SummarizationTokens
	}
	return 256
}

// Inserter implements the two Incremental Engine modes: layer-1 insert
// and safe upward propagation (spec 4.7). It never deletes nodes and
// never creates layers above the tree's existing top layer, except
// layer 1 itself when a leaf-only tree gets its first parent, matching
// the "preserving existing structure" contract the spec requires —
// generalizing the teacher's TreeIndexInserter (tree_inserter.go),
// which routed new nodes through an LLM numbered-choice prompt instead
// of cosine similarity on a dedicated cluster embedding.
type Inserter struct {
	cfg         IncrementalConfig
	embedModels []EmbeddingModel
	summarizer  summarizer.Summarizer
	keywordizer *keywords.HybridExtractor
	index       vectorstore.Store
}

// NewInserter creates an Inserter.
func NewInserter(cfg IncrementalConfig, embedModels []EmbeddingModel, summ summarizer.Summarizer, kw *keywords.HybridExtractor) *Inserter {
	return &Inserter{cfg: cfg, embedModels: embedModels, summarizer: summ, keywordizer: kw}
}

// WithIndex wires an accelerated vectorstore.Store as the
// nearest-parent search backend: InsertLeaf then queries it for the
// best layer-1 match instead of scanning every layer-1 node's cluster
// embedding directly. Without one, the linear scan stays the default.
func (ins *Inserter) WithIndex(store vectorstore.Store) *Inserter {
	ins.index = store
	return ins
}

// InsertLeaf runs the layer-1 insert algorithm for a single new leaf,
// then safe-propagates the change upward through existing layers.
func (ins *Inserter) InsertLeaf(ctx context.Context, t *Tree, c Chunk) error {
	embeddings, err := ins.embedAll(ctx, c.Text)
	if err != nil {
		return err
	}

	leafKeywords, err := ins.keywordsFor(ctx, c.Text, nil, nil)
	if err != nil {
		return err
	}

	leaf := &schema.Node{
		Text:       c.Text,
		Embeddings: embeddings,
		Keywords:   leafKeywords,
		Metadata:   map[string]any{},
		CreatedAt:  epoch(),
		UpdatedAt:  epoch(),
	}
	if c.SourceID != "" || c.RelPath != "" || c.DocID != "" {
		leaf.OriginalContentRef = &schema.OriginalContentRef{
			DocID:      c.DocID,
			SourceURL:  c.SourceID,
			RelPath:    c.RelPath,
			ChunkIndex: c.Index,
		}
	}
	leafIndex := t.AddNode(leaf, 0)

	clusterVec := embeddings[ins.cfg.ClusterModelID]
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
			return engineerr.Wrap(engineerr.KindTransient, "incremental engine: initial parent summary failed", err)
		}
		parent := &schema.Node{
			Text:       abstract,
			Children:   []int{leafIndex},
			Embeddings: embeddings,
			Keywords:   append([]string(nil), leafKeywords...),
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

// nearestParent finds the layer-1 node whose ClusterModelID embedding
// is most similar to clusterVec, the attach-vs-new-parent decision at
// the heart of layer-1 insert (spec 4.7). With an index wired via
// WithIndex it queries that accelerated backend; otherwise it falls
// back to a linear scan over every layer-1 node, scoring with
// embedding.CosineSimilarity directly.
func (ins *Inserter) nearestParent(ctx context.Context, t *Tree, clusterVec []float64) (int, float64, error) {
	if ins.index != nil {
		matches, err := ins.index.Query(ctx, t.ID(), ins.cfg.ClusterModelID, clusterVec, 1)
		if err != nil {
			return -1, 0, engineerr.Wrap(engineerr.KindTransient, "incremental engine: nearest-parent index query failed", err)
		}
		if len(matches) == 0 {
			return -1, -1, nil
		}
		return matches[0].Index, matches[0].Score, nil
	}

	bestIdx := -1
	bestSim := -1.0
	for _, parent := range t.LayerNodes(1) {
		parentVec, ok := parent.Embeddings[ins.cfg.ClusterModelID]
		if !ok {
			continue
		}
		sim, err := embedding.CosineSimilarity(clusterVec, parentVec)
		if err != nil {
			continue
		}
		if sim > bestSim {
			bestSim = sim
			bestIdx = parent.Index
		}
	}
	return bestIdx, bestSim, nil
}

// indexLayer1 upserts index's layer-1 cluster embedding into the
// wired accelerator, if any, so a newly created parent is findable by
// nearestParent on the next insert.
func (ins *Inserter) indexLayer1(ctx context.Context, t *Tree, index int) error {
	if ins.index == nil {
		return nil
	}
	node := t.Node(index)
	if node == nil {
		return nil
	}
	vec, ok := node.Embeddings[ins.cfg.ClusterModelID]
	if !ok {
		return nil
	}
	if err := ins.index.Upsert(ctx, t.ID(), ins.cfg.ClusterModelID, index, vec); err != nil {
		return engineerr.Wrap(engineerr.KindTransient, "incremental engine: nearest-parent index upsert failed", err)
	}
	return nil
}

// propagateUpward walks from a changed node up through every layer
// that references it as a descendant, recomputing embedding, summary,
// and keywords at each level (spec 4.7 "safe propagation"). It never
// creates a new top layer: once no further parent references the
// current node, propagation stops.
func (ins *Inserter) propagateUpward(ctx context.Context, t *Tree, nodeIndex int) error {
	current := nodeIndex
	for {
		parentIdx, ok := ins.findParent(t, current)
		if !ok {
			return nil
		}
		layer := t.Layer(parentIdx)
		if err := ins.resummarizeNode(ctx, t, parentIdx, layer); err != nil {
			return err
		}
		if layer == 1 {
			if err := ins.indexLayer1(ctx, t, parentIdx); err != nil {
				return err
			}
		}
		current = parentIdx
	}
}

func (ins *Inserter) findParent(t *Tree, childIndex int) (int, bool) {
	for _, n := range t.AllNodes() {
		for _, c := range n.Children {
			if c == childIndex {
				return n.Index, true
			}
		}
	}
	return 0, false
}

// resummarizeNode rebuilds a parent's summary, embedding, and keywords
// from a bounded sample of its current children (spec 4.7 "summary
// context sizing").
func (ins *Inserter) resummarizeNode(ctx context.Context, t *Tree, index, layer int) error {
	node := t.Node(index)
	if node == nil {
		return engineerr.New(engineerr.KindInvalidTree, "incremental engine: missing node during propagation")
	}

	children := t.Children(index)
	sample := sampleChildren(children, ins.cfg.maxChildrenForSummary())
	summaryContext := boundContextTokens(buildSummaryContext(sample), ins.cfg.MaxSummaryContextTokens)

	text, err := ins.summarizer.SummarizeLayer(ctx, summaryContext, layerModeFor(layer), ins.cfg.summarizationTokens())
	if err != nil {
		return engineerr.Wrap(engineerr.KindTransient, "incremental engine: resummarization failed", err)
	}

	embeddings, err := ins.embedAll(ctx, text)
	if err != nil {
		return err
	}

	childKeywords := make([][]string, len(children))
	for i, c := range children {
		childKeywords[i] = c.Keywords
	}
	ownCandidates, err := ins.keywordizer.Extract(ctx, text, nil, nil)
	if err != nil {
		return engineerr.Wrap(engineerr.KindTransient, "incremental engine: parent keyword synthesis failed", err)
	}
	kws := keywords.SynthesizeParentKeywords(ownCandidates, childKeywords)

	updated := node.Clone()
	updated.Text = text
	updated.Embeddings = embeddings
	updated.Keywords = kws
	updated.UpdatedAt = epoch()
	return t.ReplaceNode(updated)
}

// sampleChildren prefers the most recently updated and most important
// children when a parent has more than limit children, bounding
// resummarization cost (spec 4.7).
func sampleChildren(children []*schema.Node, limit int) []*schema.Node {
	if len(children) <= limit {
		return children
	}
	sorted := append([]*schema.Node(nil), children...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].Importance() > sorted[j].Importance()
		}
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	return sorted[:limit]
}

// boundContextTokens truncates text to approximately maxTokens by a
// simple byte-length heuristic (4 bytes/token); maxTokens <= 0
// disables the bound.
func boundContextTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

func (ins *Inserter) embedAll(ctx context.Context, text string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(ins.embedModels))
	for _, model := range ins.embedModels {
		vec, err := model.Client.Embed(ctx, text)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.KindTransient, "incremental engine: embedding failed", err)
		}
		out[model.ID] = vec
	}
	return out, nil
}

func (ins *Inserter) keywordsFor(ctx context.Context, text string, corpus []string, headings []string) ([]string, error) {
	scored, err := ins.keywordizer.Extract(ctx, text, corpus, headings)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "incremental engine: leaf keyword extraction failed", err)
	}
	terms := make([]string, len(scored))
	for i, s := range scored {
		terms[i] = s.Term
	}
	return terms, nil
}
