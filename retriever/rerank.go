package retriever

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/kgraptor/engine/embedding"
	"github.com/kgraptor/engine/schema"
)

// EnsembleRerank implements spec 4.12's reranker: base score
// 0.7·similarity + 0.3·importance folded with a freshness term,
// filtered below min_score, then a per-source diversity cap and an
// optional embedding-distance diversity pass — generalizing the
// teacher's NodeRecencyPostprocessor (postprocessor/node_recency.go)
// from a standalone age filter into one term of a combined score.
func EnsembleRerank(nodes []ScoredNode, opts RetrieveOptions) []ScoredNode {
	simWeight, impWeight, freshWeight := opts.rerankWeights()
	recentDays, decayDays := opts.freshnessWindow()
	now := opts.now()

	scored := make([]ScoredNode, 0, len(nodes))
	for _, sn := range nodes {
		importance := sn.Node.Importance()
		fresh := freshnessScore(sn.Node, now, recentDays, decayDays)
		final := simWeight*sn.Score + impWeight*importance + freshWeight*fresh
		if final < opts.MinScore {
			continue
		}
		sn.Score = final
		scored = append(scored, sn)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	deduped := applySourceDiversity(scored, opts.maxSameSource())
	if opts.MinDiversityDistance > 0 {
		deduped = applyEmbeddingDiversity(deduped, opts.MinDiversityDistance)
	}
	return deduped
}

// freshnessScore decays from 1.0 for content validated/accessed/created
// within recentDays, down to 0.3 for content older than decayDays, with
// linear interpolation in between (spec 4.12 "Freshness decays from
// 1.0 ... to 0.3").
func freshnessScore(n *schema.Node, now time.Time, recentDays, decayDays int) float64 {
	ref := n.ValidatedAt
	if ref.IsZero() {
		ref = n.UpdatedAt
	}
	if ref.IsZero() {
		ref = n.CreatedAt
	}
	if ref.IsZero() {
		return 0.3
	}

	ageDays := now.Sub(ref).Hours() / 24
	if ageDays <= float64(recentDays) {
		return 1.0
	}
	if ageDays >= float64(decayDays) {
		return 0.3
	}

	span := float64(decayDays - recentDays)
	progress := (ageDays - float64(recentDays)) / span
	return 1.0 - progress*0.7
}

// applySourceDiversity keeps at most maxPerSource results per source
// (spec 4.12 "at most max_same_source results per source"), preserving
// score order.
func applySourceDiversity(nodes []ScoredNode, maxPerSource int) []ScoredNode {
	counts := map[string]int{}
	return lo.Filter(nodes, func(sn ScoredNode, _ int) bool {
		source := sourceOf(sn.Node)
		if counts[source] >= maxPerSource {
			return false
		}
		counts[source]++
		return true
	})
}

func sourceOf(n *schema.Node) string {
	if n.OriginalContentRef != nil && n.OriginalContentRef.SourceURL != "" {
		return n.OriginalContentRef.SourceURL
	}
	if s, ok := n.Metadata[schema.MetaSourceURL].(string); ok {
		return s
	}
	return ""
}

// applyEmbeddingDiversity greedily drops a candidate whose best
// embedding is closer than minDistance (cosine distance) to an
// already-kept result, preferring to keep earlier (higher-scored)
// candidates (spec 4.12 "optional embedding-distance diversity").
func applyEmbeddingDiversity(nodes []ScoredNode, minDistance float64) []ScoredNode {
	var kept []ScoredNode
	for _, candidate := range nodes {
		vec := anyEmbedding(candidate.Node)
		if vec == nil {
			kept = append(kept, candidate)
			continue
		}
		tooClose := false
		for _, k := range kept {
			kVec := anyEmbedding(k.Node)
			if kVec == nil {
				continue
			}
			sim, err := embedding.CosineSimilarity(vec, kVec)
			if err != nil {
				continue
			}
			if 1-sim < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func anyEmbedding(n *schema.Node) []float64 {
	for _, v := range n.Embeddings {
		return v
	}
	return nil
}
