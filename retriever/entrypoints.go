package retriever

import "context"

// RetrieveForIncident is a convenience wrapper around Retrieve that
// forces Incident mode regardless of the query's own urgency score
// (spec 4.12 "Specialized entry points").
func (r *Retriever) RetrieveForIncident(ctx context.Context, query string, opts RetrieveOptions) ([]ScoredNode, error) {
	opts.ExplicitMode = ModeIncident
	return r.Retrieve(ctx, query, opts)
}

// RetrieveProcedure forces the hybrid graph+tree / adaptive-depth
// combination procedural queries default to, useful when the caller
// already knows the query is a how-to regardless of how it's phrased.
func (r *Retriever) RetrieveProcedure(ctx context.Context, query string, opts RetrieveOptions) ([]ScoredNode, error) {
	analysis := r.analyzeWithEntities(query)
	analysis.Intent = IntentProcedural
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
	return reranked, nil
}

// RetrieveEntityKnowledge retrieves everything reachable from a named
// entity via the hybrid graph+tree strategy, bypassing query-intent
// classification entirely since the caller already knows which entity
// they want to know about.
func (r *Retriever) RetrieveEntityKnowledge(ctx context.Context, entityName string, opts RetrieveOptions) ([]ScoredNode, error) {
	analysis := QueryAnalysis{Query: entityName, Intent: IntentRelational}
	if r.graphStore != nil {
		if e, ok := r.graphStore.FindEntity(entityName); ok {
			analysis.EntityMentions = []string{e.ID}
		}
	}
	nodes, err := r.hybridGraphTree(ctx, analysis, opts)
	if err != nil {
		return nil, err
	}
	reranked := EnsembleRerank(nodes, opts)
	if len(reranked) > opts.topK() {
		reranked = reranked[:opts.topK()]
	}
	return reranked, nil
}

// RetrieveFollowUp retrieves for query with priorContext prepended, so
// a follow-up question benefits from the conversation turns preceding
// it (spec 4.12 "follow-up with prior context").
func (r *Retriever) RetrieveFollowUp(ctx context.Context, query string, priorContext []string, opts RetrieveOptions) ([]ScoredNode, error) {
	combined := query
	for i := len(priorContext) - 1; i >= 0; i-- {
		combined = priorContext[i] + "\n" + combined
	}
	return r.Retrieve(ctx, combined, opts)
}
