// Package retriever implements the query-time retrieval pipeline (spec
// 4.12): query analysis, strategy selection and execution, result
// fusion, and ensemble reranking over a tree.Forest and a graph.Store —
// generalizing the teacher's FusionRetriever (fusion.go) and
// NodeRecencyPostprocessor (postprocessor/node_recency.go) from a
// generic LlamaIndex-style retriever chain into the fixed set of
// domain-aware strategies the spec names.
package retriever

import (
	"time"

	"github.com/kgraptor/engine/schema"
)

// Intent classifies what kind of answer a query is after (spec 4.12
// "query analysis").
type Intent string

const (
	IntentFactual         Intent = "factual"
	IntentProcedural      Intent = "procedural"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentExploratory     Intent = "exploratory"
	IntentComparative     Intent = "comparative"
	IntentRelational      Intent = "relational"
	IntentTemporal        Intent = "temporal"
)

// Mode selects which retrieval strategy (or strategies) run.
type Mode string

const (
	ModeMultiQuery Mode = "multi_query"
	ModeHyDE       Mode = "hyde"
	ModeAdaptive   Mode = "adaptive_depth"
	ModeHybrid     Mode = "hybrid_graph_tree"
	ModeIncident   Mode = "incident_aware"
	ModeSimilarity Mode = "similarity"
)

// QueryAnalysis is the structured judgment of a raw query (spec 4.12
// "query analysis").
type QueryAnalysis struct {
	Query           string
	Intent          Intent
	ContentKeywords []string
	Urgency         float64
	EntityMentions  []string
}

// ScoredNode is one retrieved node with its similarity/fused/reranked
// score and the tree it came from — the retrieval-time counterpart of
// schema.Node, which carries no score of its own.
type ScoredNode struct {
	Node    *schema.Node
	TreeID  string
	Score   float64
	Sources map[string]float64
}

// RetrieveOptions parameterizes one Retrieve call.
type RetrieveOptions struct {
	// ExplicitMode overrides automatic mode selection when non-empty.
	ExplicitMode Mode
	// ParallelStrategies runs multiple selected strategies concurrently
	// under a single timeout budget (spec 4.12 "Execution").
	ParallelStrategies bool
	StrategyTimeout    time.Duration
	TopK               int

	// MultiQueryVariations bounds how many reformulations multi-query
	// generates.
	MultiQueryVariations int

	// ExpansionHops bounds graph traversal depth for the hybrid strategy.
	ExpansionHops int
	GraphWeight   float64
	TreeWeight    float64

	// QualityThreshold is the average-score target for the adaptive-depth
	// strategy.
	QualityThreshold float64

	// Reranker weights and filters (spec 4.12 "Reranker (ensemble)").
	SimilarityWeight     float64
	ImportanceWeight     float64
	FreshnessWeight      float64
	FreshnessRecentDays  int
	FreshnessDecayDays   int
	MinScore             float64
	MaxSameSource        int
	MinDiversityDistance float64

	// Incident-aware strategy weights.
	SymptomWeight  float64
	RecencyWeight  float64
	SuccessWeight  float64

	Now time.Time
}

func (o RetrieveOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o RetrieveOptions) topK() int {
	if o.TopK > 0 {
		return o.TopK
	}
	return 10
}

func (o RetrieveOptions) multiQueryVariations() int {
	if o.MultiQueryVariations > 0 {
		return o.MultiQueryVariations
	}
	return 3
}

func (o RetrieveOptions) expansionHops() int {
	if o.ExpansionHops > 0 {
		return o.ExpansionHops
	}
	return 2
}

func (o RetrieveOptions) graphTreeWeights() (float64, float64) {
	g, tw := o.GraphWeight, o.TreeWeight
	if g == 0 && tw == 0 {
		return 0.5, 0.5
	}
	total := g + tw
	return g / total, tw / total
}

func (o RetrieveOptions) qualityThreshold() float64 {
	if o.QualityThreshold > 0 {
		return o.QualityThreshold
	}
	return 0.6
}

func (o RetrieveOptions) rerankWeights() (sim, imp, fresh float64) {
	sim, imp, fresh = o.SimilarityWeight, o.ImportanceWeight, o.FreshnessWeight
	if sim == 0 && imp == 0 && fresh == 0 {
		return 0.7, 0.3, 0.0
	}
	total := sim + imp + fresh
	if total == 0 {
		return 0.7, 0.3, 0.0
	}
	return sim / total, imp / total, fresh / total
}

func (o RetrieveOptions) freshnessWindow() (recent, decay int) {
	recent = o.FreshnessRecentDays
	if recent <= 0 {
		recent = 7
	}
	decay = o.FreshnessDecayDays
	if decay <= 0 {
		decay = 90
	}
	return recent, decay
}

func (o RetrieveOptions) maxSameSource() int {
	if o.MaxSameSource > 0 {
		return o.MaxSameSource
	}
	return 3
}

func (o RetrieveOptions) incidentWeights() (symptom, recency, success float64) {
	symptom, recency, success = o.SymptomWeight, o.RecencyWeight, o.SuccessWeight
	if symptom == 0 && recency == 0 && success == 0 {
		return 0.5, 0.3, 0.2
	}
	total := symptom + recency + success
	return symptom / total, recency / total, success / total
}
