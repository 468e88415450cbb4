package retriever

import (
	"context"
	"time"

	"github.com/kgraptor/engine/graph"
)

// incidentAware matches query symptoms against Runbook.symptoms and
// recently resolved Incident entities, collecting their node ids and
// weighting each by symptom overlap, recency, and (for runbooks) past
// success rate (spec 4.12 "Incident-aware").
func (r *Retriever) incidentAware(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	if r.graphStore == nil {
		return r.similarityOnly(ctx, analysis, opts)
	}

	symptomWeight, recencyWeight, successWeight := opts.incidentWeights()
	now := opts.now()
	queryTerms := analysis.ContentKeywords

	defaultTree := r.forest.DefaultTree()
	scored := map[int]float64{}

	for _, e := range r.graphStore.FindEntities(graph.EntityFilter{Type: graph.EntityTypeRunbook}) {
		overlap := symptomOverlap(queryTerms, stringSliceProperty(e.Properties, "symptoms"))
		if overlap == 0 {
			continue
		}
		successRate := floatProperty(e.Properties, "success_rate", 0.5)
		score := symptomWeight*overlap + successWeight*successRate
		addNodeScores(scored, e.NodeIDs, score)
	}

	for _, e := range r.graphStore.FindEntities(graph.EntityFilter{Type: graph.EntityTypeIncident}) {
		if stringProperty(e.Properties, "status") != "resolved" {
			continue
		}
		overlap := symptomOverlap(queryTerms, stringSliceProperty(e.Properties, "symptoms"))
		if overlap == 0 {
			continue
		}
		recency := recencyScore(e.UpdatedAt, now, 30*24*time.Hour)
		score := symptomWeight*overlap + recencyWeight*recency
		addNodeScores(scored, e.NodeIDs, score)
	}

	var out []ScoredNode
	if defaultTree != nil {
		for id, score := range scored {
			if n := defaultTree.Node(id); n != nil {
				out = append(out, ScoredNode{Node: n, TreeID: defaultTree.ID(), Score: score})
			}
		}
	}
	if len(out) == 0 {
		return r.similarityOnly(ctx, analysis, opts)
	}
	return out, nil
}

func addNodeScores(scored map[int]float64, nodeIDs []int, score float64) {
	for _, id := range nodeIDs {
		if score > scored[id] {
			scored[id] = score
		}
	}
}

func symptomOverlap(queryTerms, symptoms []string) float64 {
	if len(symptoms) == 0 {
		return 0
	}
	querySet := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		querySet[t] = true
	}
	matches := 0
	for _, s := range symptoms {
		if querySet[s] {
			matches++
		}
	}
	return float64(matches) / float64(len(symptoms))
}

// recencyScore decays linearly from 1.0 (now) to 0.0 at window away.
func recencyScore(updatedAt, now time.Time, window time.Duration) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	age := now.Sub(updatedAt)
	if age <= 0 {
		return 1.0
	}
	if age >= window {
		return 0
	}
	return 1.0 - float64(age)/float64(window)
}

func stringSliceProperty(props map[string]any, key string) []string {
	raw, ok := props[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringProperty(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func floatProperty(props map[string]any, key string, fallback float64) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}
