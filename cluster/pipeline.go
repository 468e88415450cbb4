package cluster

// Pipeline composes a Reducer and a Clusterer into the two-step
// procedure spec 4.5 describes: reduce to d dimensions, then cluster
// the reduced vectors.
type Pipeline struct {
	Reducer            Reducer
	Clusterer          Clusterer
	ReductionDimension int
}

// NewPipeline builds a Pipeline from a PCA reducer and a GMM clusterer
// sized for the given reduction dimension and cluster budget.
func NewPipeline(reductionDimension, maxClusters int, softThreshold float64) *Pipeline {
	return &Pipeline{
		Reducer:            NewPCAReducer(),
		Clusterer:          NewGMMClusterer(maxClusters, softThreshold),
		ReductionDimension: reductionDimension,
	}
}

// Run reduces vectors and clusters them. Callers should check
// ShouldStop before calling Run; Run itself does not enforce the stop
// condition so it stays usable in isolation (e.g. in tests that probe
// the reducer/clusterer directly).
func (p *Pipeline) Run(vectors []Vector) ([]Group, error) {
	reduced, err := p.Reducer.Reduce(vectors, p.ReductionDimension)
	if err != nil {
		return nil, err
	}
	return p.Clusterer.Cluster(reduced)
}
