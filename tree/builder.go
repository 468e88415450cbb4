package tree

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kgraptor/engine/cluster"
	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/engineerr"
	"github.com/kgraptor/engine/keywords"
	"github.com/kgraptor/engine/schema"
	"github.com/kgraptor/engine/store"
	"github.com/kgraptor/engine/summarizer"
)

// Chunk is one pre-split unit of text handed to the builder, carrying
// enough provenance to populate a leaf node's OriginalContentRef.
type Chunk struct {
	Text     string
	SourceID string
	RelPath  string
	DocID    string
	Index    int
}

// EmbeddingModel names one embedding backend the builder computes
// vectors with. ClusterModelID in BuilderConfig selects which of these
// the Clusterer operates on.
type EmbeddingModel struct {
	ID     string
	Client embedding.Client
}

// BuilderConfig configures a cluster-mode tree build (spec 4.6).
type BuilderConfig struct {
	// ReductionDimension is d in the clusterer contract.
	ReductionDimension int
	// AutoDepth stops layer construction once a layer's node count
	// drops to TargetTopNodes or below (never before layer 1).
	AutoDepth      bool
	TargetTopNodes int
	// MaxLayers bounds layer construction even under AutoDepth.
	MaxLayers int
	// MaxWorkers bounds per-cluster summarization/embedding concurrency.
	MaxWorkers int
	// MaxClusters bounds the clusterer's component search.
	MaxClusters int
	// SoftClusterThreshold is the posterior-probability cutoff for
	// multi-cluster assignment.
	SoftClusterThreshold float64
	// SummarizationTokens maps layer number to that layer's summary
	// token budget; DefaultSummarizationTokens is used for layers not
	// present in the map.
	SummarizationTokens        map[int]int
	DefaultSummarizationTokens int
	// TopNCitations bounds aggregated provenance on a parent node.
	TopNCitations int
	// MaxRetries bounds the total time spent retrying a node's
	// summarization or embedding (30s when zero).
	MaxRetries time.Duration
	// ClusterModelID selects which EmbeddingModel the clusterer runs on.
	ClusterModelID string
	// CheckpointKV, if set, receives one Forest.Save-style snapshot per
	// completed layer so a recoverable checkpoint exists mid-build.
	CheckpointKV store.KVStore
}

func (c BuilderConfig) summarizationTokens(layer int) int {
	if n, ok := c.SummarizationTokens[layer]; ok {
		return n
	}
	if c.DefaultSummarizationTokens > 0 {
		return c.DefaultSummarizationTokens
	}
	return 256
}

func (c BuilderConfig) maxWorkers() int {
	if c.MaxWorkers > 0 {
		return c.MaxWorkers
	}
	return 4
}

func (c BuilderConfig) maxRetryElapsed() time.Duration {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 30 * time.Second
}

// Builder runs the cluster-mode tree construction algorithm (spec
// 4.6), generalizing the teacher's TreeIndex.buildTreeFromNodes (fixed
// group size, single summary call) into clustered grouping with
// per-model embeddings, hybrid keywords, and aggregated provenance.
type Builder struct {
	cfg         BuilderConfig
	embedModels []EmbeddingModel
	summarizer  summarizer.Summarizer
	keywordizer *keywords.HybridExtractor
	logger      *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger attaches a structured logger.
func WithBuilderLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig, embedModels []EmbeddingModel, summ summarizer.Summarizer, kw *keywords.HybridExtractor, opts ...BuilderOption) *Builder {
	b := &Builder{cfg: cfg, embedModels: embedModels, summarizer: summ, keywordizer: kw, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromChunks runs the full cluster-mode build and returns the
// resulting Tree. No partial tree is returned on failure (spec 4.6
// failure semantics); per-layer checkpoints are written as layers
// complete if CheckpointKV is configured.
func (b *Builder) BuildFromChunks(ctx context.Context, treeID string, chunks []Chunk) (*Tree, error) {
	t := NewTree(treeID)

	if err := b.buildLeaves(ctx, t, chunks); err != nil {
		return nil, err
	}

	return b.runLayers(ctx, t)
}

// runLayers builds layers 1..N on top of whatever leaves t already
// carries at layer 0, the shared tail of BuildFromChunks and
// BuildFromLeaves.
func (b *Builder) runLayers(ctx context.Context, t *Tree) (*Tree, error) {
	layer := 0
	for {
		current := t.LayerNodes(layer)
		if b.cfg.AutoDepth && layer >= 1 && len(current) <= b.cfg.TargetTopNodes {
			break
		}
		if cluster.ShouldStop(len(current), b.cfg.ReductionDimension) {
			break
		}
		if b.cfg.MaxLayers > 0 && layer >= b.cfg.MaxLayers {
			break
		}

		nextLayer := layer + 1
		indices, err := b.buildLayer(ctx, t, current, nextLayer)
		if err != nil {
			return nil, err
		}
		t.InstallLayer(nextLayer, indices)
		if err := b.checkpoint(ctx, t, nextLayer); err != nil {
			b.logger.Warn("tree builder checkpoint failed", zap.Error(err), zap.Int("layer", nextLayer))
		}
		layer = nextLayer
	}

	return t, nil
}

func (b *Builder) buildLeaves(ctx context.Context, t *Tree, chunks []Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	for _, c := range chunks {
		embeddings, err := b.embedAll(ctx, c.Text)
		if err != nil {
			return err
		}
		kws, err := b.keywordsFor(ctx, c.Text, texts, nil)
		if err != nil {
			return err
		}

		n := &schema.Node{
			Text:       c.Text,
			Embeddings: embeddings,
			Keywords:   kws,
			Metadata:   map[string]any{},
			CreatedAt:  epoch(),
			UpdatedAt:  epoch(),
		}
		if c.SourceID != "" || c.RelPath != "" || c.DocID != "" {
			n.OriginalContentRef = &schema.OriginalContentRef{
				DocID:      c.DocID,
				SourceURL:  c.SourceID,
				RelPath:    c.RelPath,
				ChunkIndex: c.Index,
			}
			n.Metadata[schema.MetaSourceURL] = c.SourceID
		}
		t.AddNode(n, 0)
	}
	return nil
}

// epoch returns a fixed instant rather than time.Now so the builder
// stays testable without a time source dependency; callers that
// persist nodes should stamp real timestamps at the storage boundary.
func epoch() time.Time { return time.Unix(0, 0).UTC() }

// buildLayer clusters current-layer nodes and, in parallel up to
// MaxWorkers, builds one parent node per cluster.
func (b *Builder) buildLayer(ctx context.Context, t *Tree, current []*schema.Node, targetLayer int) ([]int, error) {
	vectors := make([]cluster.Vector, len(current))
	for i, n := range current {
		vec, ok := n.Embeddings[b.cfg.ClusterModelID]
		if !ok {
			return nil, engineerr.New(engineerr.KindInvalidTree, "tree builder: node missing cluster embedding model")
		}
		vectors[i] = vec
	}

	pipeline := cluster.NewPipeline(b.cfg.ReductionDimension, b.cfg.effectiveMaxClusters(len(current)), b.cfg.SoftClusterThreshold)
	groups, err := pipeline.Run(vectors)
	if err != nil {
		return nil, err
	}

	results := make([]*schema.Node, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.maxWorkers())
	for gi, group := range groups {
		gi, group := gi, group
		g.Go(func() error {
			members := make([]*schema.Node, len(group.Members))
			for mi, idx := range group.Members {
				members[mi] = current[idx]
			}
			parent, err := b.buildParent(gctx, members, targetLayer)
			if err != nil {
				return err
			}
			results[gi] = parent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(results))
	for _, parent := range results {
		indices = append(indices, t.AddNode(parent, targetLayer))
	}
	sort.Ints(indices)
	return indices, nil
}

func (b BuilderConfig) effectiveMaxClusters(nodeCount int) int {
	if b.MaxClusters > 0 {
		return b.MaxClusters
	}
	if b.TargetTopNodes > 0 && b.TargetTopNodes < nodeCount {
		return b.TargetTopNodes
	}
	return 8
}

// buildParent constructs one parent node by summarizing its member
// children, re-embedding the summary, synthesizing keywords, and
// aggregating provenance.
func (b *Builder) buildParent(ctx context.Context, members []*schema.Node, layer int) (*schema.Node, error) {
	summaryContext := buildSummaryContext(members)

	var summaryText string
	err := b.retry(ctx, func() error {
		text, err := b.summarizer.SummarizeLayer(ctx, summaryContext, layerModeFor(layer), b.cfg.summarizationTokens(layer))
		if err != nil {
			return err
		}
		summaryText = text
		return nil
	})
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "tree builder: summarization failed", err)
	}

	var embeddings map[string][]float64
	err = b.retry(ctx, func() error {
		e, err := b.embedAll(ctx, summaryText)
		if err != nil {
			return err
		}
		embeddings = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	childKeywords := make([][]string, len(members))
	for i, m := range members {
		childKeywords[i] = m.Keywords
	}
	ownCandidates, err := b.keywordizer.Extract(ctx, summaryText, nil, nil)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "tree builder: parent keyword extraction failed", err)
	}
	kws := keywords.SynthesizeParentKeywords(ownCandidates, childKeywords)

	children := make([]int, len(members))
	for i, m := range members {
		children[i] = m.Index
	}

	citations, total := aggregateCitations(members, b.topNCitations())

	metadata := map[string]any{}
	if len(citations) > 0 {
		metadata[schema.MetaCitations] = citations
		metadata[schema.MetaCitationTotal] = total
	}

	return &schema.Node{
		Text:       summaryText,
		Children:   children,
		Embeddings: embeddings,
		Keywords:   kws,
		Metadata:   metadata,
		CreatedAt:  epoch(),
		UpdatedAt:  epoch(),
	}, nil
}

func (b *Builder) topNCitations() int {
	if b.cfg.TopNCitations > 0 {
		return b.cfg.TopNCitations
	}
	return 5
}

func (b *Builder) embedAll(ctx context.Context, text string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(b.embedModels))
	for _, model := range b.embedModels {
		vec, err := model.Client.Embed(ctx, text)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.KindTransient, "tree builder: embedding failed", err)
		}
		out[model.ID] = vec
	}
	return out, nil
}

func (b *Builder) keywordsFor(ctx context.Context, text string, corpus []string, headings []string) ([]string, error) {
	scored, err := b.keywordizer.Extract(ctx, text, corpus, headings)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindTransient, "tree builder: leaf keyword extraction failed", err)
	}
	terms := make([]string, len(scored))
	for i, s := range scored {
		terms[i] = s.Term
	}
	return terms, nil
}

func (b *Builder) retry(ctx context.Context, op backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), b.cfg.maxRetryElapsed()), ctx)
	return backoff.Retry(op, policy)
}

func (b *Builder) checkpoint(ctx context.Context, t *Tree, layer int) error {
	if b.cfg.CheckpointKV == nil {
		return nil
	}
	f := NewForest()
	f.AddTree(t)
	return f.Save(ctx, b.cfg.CheckpointKV)
}

// layerModeFor picks the summarizer layer mode per target layer: the
// first parent layer above leaves keeps more detail, deeper layers
// compress toward a plain abstractive summary.
func layerModeFor(layer int) summarizer.Layer {
	if layer <= 1 {
		return summarizer.LayerDetails
	}
	return summarizer.LayerSummary
}

// provenanceHeaderPattern strips source/section markers and templating
// shortcodes from child text before it is concatenated into a
// summarization context, preventing the "parent == excerpt-of-one-
// child" failure spec 4.6 calls out.
var provenanceHeaderPattern = regexp.MustCompile(`(?m)^\s*(Source:|Section:|Document:|Chapter\s+\d+).*$`)
var shortcodePattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

func stripProvenanceHeaders(text string) string {
	text = provenanceHeaderPattern.ReplaceAllString(text, "")
	text = shortcodePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func buildSummaryContext(members []*schema.Node) string {
	var b strings.Builder
	for i, m := range members {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(stripProvenanceHeaders(m.Text))
	}
	return b.String()
}

// aggregateCitations collects unique sources among members, counts
// occurrences, and returns the top-N by count plus the total
// considered (spec 4.6: "citations = top-N unique sources with
// counts, citation_total = total considered").
func aggregateCitations(members []*schema.Node, topN int) ([]schema.Citation, int) {
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0
	for _, m := range members {
		if m.OriginalContentRef == nil || m.OriginalContentRef.SourceURL == "" {
			continue
		}
		src := m.OriginalContentRef.SourceURL
		if _, ok := counts[src]; !ok {
			order = append(order, src)
		}
		counts[src]++
		total++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}

	citations := make([]schema.Citation, len(order))
	for i, src := range order {
		citations[i] = schema.Citation{SourceURL: src, Count: counts[src]}
	}
	return citations, total
}
