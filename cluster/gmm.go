package cluster

import (
	"math"

	"github.com/kgraptor/engine/engineerr"
)

// GMMClusterer is a Gaussian mixture model fit by expectation
// maximization over diagonal covariances, chosen for speed at the
// small per-layer node counts the tree builder works with. The number
// of components is selected automatically by scanning 1..MaxComponents
// and picking the lowest Bayesian information criterion (BIC), which
// is how the RAPTOR-style clustering this spec is modeled on picks k.
//
// Assignment is soft: a vector belongs to every component whose
// posterior responsibility is ≥ SoftThreshold, so a node may end up in
// more than one cluster (spec 4.5 step 2).
type GMMClusterer struct {
	MaxComponents int
	SoftThreshold float64
	Iterations    int
	Seed          int64
}

// NewGMMClusterer creates a GMMClusterer with the given component
// budget and soft-assignment threshold.
func NewGMMClusterer(maxComponents int, softThreshold float64) *GMMClusterer {
	return &GMMClusterer{
		MaxComponents: maxComponents,
		SoftThreshold: softThreshold,
		Iterations:    100,
		Seed:          1,
	}
}

type gaussianComponent struct {
	weight   float64
	mean     []float64
	variance []float64 // diagonal covariance, one entry per dimension
}

// Cluster fits a Gaussian mixture and returns soft cluster assignments.
func (g *GMMClusterer) Cluster(vectors []Vector) ([]Group, error) {
	n := len(vectors)
	if n == 0 {
		return nil, engineerr.New(engineerr.KindValidation, "cluster: no vectors to cluster")
	}
	if n == 1 {
		return []Group{{Members: []int{0}}}, nil
	}

	maxK := g.MaxComponents
	if maxK <= 0 {
		maxK = 8
	}
	if maxK > n {
		maxK = n
	}

	threshold := g.SoftThreshold
	if threshold <= 0 {
		threshold = 0.1
	}

	var best struct {
		bic        float64
		components []gaussianComponent
		resp       [][]float64
	}
	best.bic = math.Inf(1)

	rng := newDeterministicRand(g.Seed)
	for k := 1; k <= maxK; k++ {
		components, resp := fitGMM(vectors, k, g.iterations(), rng)
		bic := bicScore(vectors, components, resp)
		if bic < best.bic {
			best.bic = bic
			best.components = components
			best.resp = resp
		}
	}

	groups := make([]Group, len(best.components))
	for c := range best.components {
		var members []int
		for i, row := range best.resp {
			if row[c] >= threshold {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			// Guarantee every component keeps at least its best point so
			// a degenerate posterior never produces an empty cluster.
			members = []int{argmaxComponent(best.resp, c)}
		}
		groups[c] = Group{Members: sortGroup(members)}
	}
	return groups, nil
}

func (g *GMMClusterer) iterations() int {
	if g.Iterations <= 0 {
		return 100
	}
	return g.Iterations
}

// fitGMM runs EM for a fixed component count k and returns the fitted
// components and the final per-point responsibility matrix.
func fitGMM(vectors []Vector, k, iterations int, rng *deterministicRand) ([]gaussianComponent, [][]float64) {
	n := len(vectors)
	dim := len(vectors[0])

	components := initComponents(vectors, k, rng)
	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	for iter := 0; iter < iterations; iter++ {
		// E-step: compute responsibilities.
		for i, v := range vectors {
			var denom float64
			densities := make([]float64, k)
			for c, comp := range components {
				densities[c] = comp.weight * gaussianDensity(v, comp.mean, comp.variance)
				denom += densities[c]
			}
			if denom < 1e-300 {
				// Degenerate: fall back to uniform responsibility.
				for c := range resp[i] {
					resp[i][c] = 1.0 / float64(k)
				}
				continue
			}
			for c := range resp[i] {
				resp[i][c] = densities[c] / denom
			}
		}

		// M-step: update weights, means, variances from responsibilities.
		for c := range components {
			var nc float64
			for i := range vectors {
				nc += resp[i][c]
			}
			if nc < 1e-9 {
				continue
			}
			mean := make([]float64, dim)
			for i, v := range vectors {
				for j, x := range v {
					mean[j] += resp[i][c] * x
				}
			}
			for j := range mean {
				mean[j] /= nc
			}

			variance := make([]float64, dim)
			for i, v := range vectors {
				for j, x := range v {
					d := x - mean[j]
					variance[j] += resp[i][c] * d * d
				}
			}
			for j := range variance {
				variance[j] /= nc
				if variance[j] < 1e-6 {
					variance[j] = 1e-6
				}
			}

			components[c].weight = nc / float64(n)
			components[c].mean = mean
			components[c].variance = variance
		}
	}

	return components, resp
}

func initComponents(vectors []Vector, k int, rng *deterministicRand) []gaussianComponent {
	dim := len(vectors[0])
	n := len(vectors)
	components := make([]gaussianComponent, k)

	// Seeded with a fixed-seed PRNG rather than math/rand's global
	// source, so a given input order always yields the same initial
	// means and therefore the same converged clusters (spec 4.6
	// determinism requirement).
	for c := 0; c < k; c++ {
		idx := rng.intn(n)
		mean := make([]float64, dim)
		copy(mean, vectors[idx])
		variance := make([]float64, dim)
		for j := range variance {
			variance[j] = 1.0
		}
		components[c] = gaussianComponent{weight: 1.0 / float64(k), mean: mean, variance: variance}
	}
	return components
}

func gaussianDensity(x, mean, variance []float64) float64 {
	var exponent, logDet float64
	for j := range x {
		d := x[j] - mean[j]
		exponent += (d * d) / variance[j]
		logDet += math.Log(variance[j])
	}
	dim := float64(len(x))
	logNorm := -0.5 * (dim*math.Log(2*math.Pi) + logDet)
	return math.Exp(logNorm - 0.5*exponent)
}

// bicScore computes the Bayesian information criterion for a fitted
// mixture: lower is better. Used to pick the component count k.
func bicScore(vectors []Vector, components []gaussianComponent, resp [][]float64) float64 {
	n := len(vectors)
	dim := len(vectors[0])
	k := len(components)

	var logLikelihood float64
	for _, v := range vectors {
		var density float64
		for _, comp := range components {
			density += comp.weight * gaussianDensity(v, comp.mean, comp.variance)
		}
		if density < 1e-300 {
			density = 1e-300
		}
		logLikelihood += math.Log(density)
	}

	// Free parameters: (k-1) weights + k*dim means + k*dim variances.
	params := float64((k-1)+k*dim+k*dim)
	return -2*logLikelihood + params*math.Log(float64(n))
}

func argmaxComponent(resp [][]float64, component int) int {
	best := 0
	bestVal := math.Inf(-1)
	for i, row := range resp {
		if row[component] > bestVal {
			bestVal = row[component]
			best = i
		}
	}
	return best
}

// deterministicRand is a tiny linear congruential generator used only
// to break ties when seeding components; it avoids importing math/rand
// so clustering results are reproducible across Go versions without
// depending on global PRNG state.
type deterministicRand struct {
	state uint64
}

func newDeterministicRand(seed int64) *deterministicRand {
	if seed == 0 {
		seed = 1
	}
	return &deterministicRand{state: uint64(seed)}
}

func (r *deterministicRand) intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return int((r.state >> 33) % uint64(n))
}
