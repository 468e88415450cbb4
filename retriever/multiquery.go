package retriever

import (
	"context"
	"fmt"
	"strings"
)

// heuristicPrefixes holds reformulation templates per intent, used when no generator LLM is
// wired (spec 4.12 multi-query: "N variations (LLM if available, else
// heuristic reformulations per intent)").
var heuristicPrefixes = map[Intent][]string{
	IntentProcedural:      {"steps to %s", "how do I %s", "guide for %s"},
	IntentTroubleshooting: {"why is %s failing", "troubleshoot %s", "root cause of %s"},
	IntentFactual:         {"what is %s", "definition of %s", "%s explained"},
	IntentExploratory:     {"overview of %s", "introduction to %s", "background on %s"},
	IntentComparative:     {"%s comparison", "differences in %s", "%s tradeoffs"},
	IntentRelational:      {"what depends on %s", "ownership of %s", "relationships of %s"},
	IntentTemporal:        {"history of %s", "recent changes to %s", "timeline of %s"},
}

// multiQuery expands the query into N variations, runs a tree
// similarity search per variation, and unions the results keeping the
// best score per node (spec 4.12 "Multi-query").
func (r *Retriever) multiQuery(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	variations := dedupeStrings(r.queryVariations(ctx, analysis, opts.multiQueryVariations()))

	var sets [][]ScoredNode
	for _, q := range variations {
		vec, err := r.embedModel.Client.Embed(ctx, q)
		if err != nil {
			continue
		}
		sets = append(sets, r.searchAllTrees(ctx, vec, opts.topK()))
	}
	return mergeByMaxScore(sets...), nil
}

// queryVariations produces up to n reformulations of the query,
// preferring the generator LLM when wired and falling back to a fixed
// set of intent-specific templates otherwise.
func (r *Retriever) queryVariations(ctx context.Context, analysis QueryAnalysis, n int) []string {
	variations := []string{analysis.Query}

	if r.generator != nil {
		prompt := fmt.Sprintf("Rewrite the following query %d different ways, one per line, preserving its meaning:\n%s", n, analysis.Query)
		if text, err := r.generator.Complete(ctx, prompt); err == nil {
			for _, line := range strings.Split(text, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				variations = append(variations, line)
				if len(variations) >= n {
					return variations
				}
			}
			if len(variations) > 1 {
				return variations
			}
		}
	}

	for _, tmpl := range heuristicPrefixes[analysis.Intent] {
		variations = append(variations, fmt.Sprintf(tmpl, analysis.Query))
		if len(variations) >= n {
			break
		}
	}
	return variations
}
