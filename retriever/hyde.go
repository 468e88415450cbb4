package retriever

import (
	"context"
	"fmt"
)

// hyde implements Hypothetical Document Embeddings (spec 4.12): a
// generator LLM drafts a plausible answer to the query, the answer
// (not the query) is embedded and searched, and those results are
// unioned with a direct search on the original query's embedding.
// Without a generator, it degrades to a plain similarity search.
func (r *Retriever) hyde(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	queryVec, err := r.embedModel.Client.Embed(ctx, analysis.Query)
	if err != nil {
		return nil, err
	}
	sets := [][]ScoredNode{r.searchAllTrees(ctx, queryVec, opts.topK())}

	if r.generator != nil {
		prompt := fmt.Sprintf("Write a short, plausible answer to this question, as if it were found in internal documentation:\n%s", analysis.Query)
		if hypothetical, err := r.generator.Complete(ctx, prompt); err == nil && hypothetical != "" {
			if hypoVec, err := r.embedModel.Client.Embed(ctx, hypothetical); err == nil {
				sets = append(sets, r.searchAllTrees(ctx, hypoVec, opts.topK()))
			}
		}
	}

	return mergeByMaxScore(sets...), nil
}
