package retriever

import "context"

// startLayer picks the initial search depth for the adaptive-depth
// strategy (spec 4.12): factual/troubleshooting start at the leaves
// (layer 0, most detailed); exploratory starts at a middle layer;
// comparative starts near the middle but one layer lower (closer to
// detail); everything else also starts at the leaves.
func startLayer(intent Intent, numLayers int) int {
	top := numLayers - 1
	if top < 0 {
		top = 0
	}
	switch intent {
	case IntentExploratory:
		return top / 2
	case IntentComparative:
		layer := top/2 - 1
		if layer < 0 {
			return 0
		}
		return layer
	default:
		return 0
	}
}

func averageScore(nodes []ScoredNode) float64 {
	if len(nodes) == 0 {
		return 0
	}
	total := 0.0
	for _, n := range nodes {
		total += n.Score
	}
	return total / float64(len(nodes))
}

// adaptiveDepth starts at startLayer and walks up toward coarser
// summaries when result quality is poor, or down toward finer detail
// when it is merely medium, stopping once the average score clears
// opts.qualityThreshold() or the tree's layer bounds are exhausted
// (spec 4.12 "Adaptive-depth").
func (r *Retriever) adaptiveDepth(ctx context.Context, analysis QueryAnalysis, opts RetrieveOptions) ([]ScoredNode, error) {
	vec, err := r.embedModel.Client.Embed(ctx, analysis.Query)
	if err != nil {
		return nil, err
	}

	threshold := opts.qualityThreshold()
	var best []ScoredNode
	var bestAvg float64

	for _, id := range r.forest.ListTrees() {
		t := r.forest.GetTree(id)
		if t == nil {
			continue
		}

		layer := startLayer(analysis.Intent, t.NumLayers())
		visited := map[int]bool{}
		for iterations := 0; iterations < t.NumLayers() && !visited[layer]; iterations++ {
			visited[layer] = true
			candidates := searchLayer(t, layer, vec, r.embedModel.ID, opts.topK())
			avg := averageScore(candidates)

			if avg >= threshold || len(candidates) == 0 {
				if avg > bestAvg {
					best, bestAvg = candidates, avg
				}
				break
			}
			if avg > bestAvg {
				best, bestAvg = candidates, avg
			}

			if avg < threshold/2 {
				layer = clampLayer(layer+1, t.NumLayers())
			} else {
				layer = clampLayer(layer-1, t.NumLayers())
			}
		}
	}

	return best, nil
}

func clampLayer(layer, numLayers int) int {
	if layer < 0 {
		return 0
	}
	if layer > numLayers-1 {
		return numLayers - 1
	}
	return layer
}
