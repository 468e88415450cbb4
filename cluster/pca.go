package cluster

import (
	"math"

	"github.com/kgraptor/engine/engineerr"
)

// PCAReducer projects vectors onto their top-dim principal components,
// computed by power iteration with deflation. It stands in for the
// UMAP-like reducer the spec calls pluggable (spec 4.5 step 1); no
// library in the retrieved pack implements manifold reduction, and
// linear PCA is the standard stdlib-only substitute.
type PCAReducer struct {
	// Iterations bounds the power-iteration loop per component.
	Iterations int
}

// NewPCAReducer creates a PCAReducer with a sensible iteration bound.
func NewPCAReducer() *PCAReducer {
	return &PCAReducer{Iterations: 100}
}

// Reduce projects vectors onto their top-dim principal components. If
// the input dimensionality is already ≤ dim, vectors are returned
// unchanged (padded with zeros if dim is larger).
func (r *PCAReducer) Reduce(vectors []Vector, dim int) ([]Vector, error) {
	n := len(vectors)
	if n == 0 {
		return nil, engineerr.New(engineerr.KindValidation, "cluster: no vectors to reduce")
	}
	srcDim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != srcDim {
			return nil, engineerr.New(engineerr.KindValidation, "cluster: vectors have mismatched dimensionality")
		}
	}
	if dim <= 0 {
		return nil, engineerr.New(engineerr.KindValidation, "cluster: reduction dimension must be positive")
	}
	if srcDim <= dim {
		out := make([]Vector, n)
		for i, v := range vectors {
			padded := make(Vector, dim)
			copy(padded, v)
			out[i] = padded
		}
		return out, nil
	}

	mean := columnMeans(vectors)
	centered := make([][]float64, n)
	for i, v := range vectors {
		row := make([]float64, srcDim)
		for j := range v {
			row[j] = v[j] - mean[j]
		}
		centered[i] = row
	}

	iterations := r.Iterations
	if iterations <= 0 {
		iterations = 100
	}

	components := make([][]float64, 0, dim)
	residual := centered
	for c := 0; c < dim; c++ {
		pc := powerIterationComponent(residual, srcDim, iterations)
		components = append(components, pc)
		residual = deflate(residual, pc)
	}

	out := make([]Vector, n)
	for i, row := range centered {
		projected := make(Vector, dim)
		for c, pc := range components {
			projected[c] = dot(row, pc)
		}
		out[i] = projected
	}
	return out, nil
}

func columnMeans(vectors []Vector) []float64 {
	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(len(vectors))
	}
	return mean
}

// powerIterationComponent finds the dominant eigenvector of the
// covariance matrix of rows without materializing the matrix, by
// repeatedly multiplying a unit vector by X^T X.
func powerIterationComponent(rows [][]float64, dim, iterations int) []float64 {
	v := make([]float64, dim)
	for j := range v {
		v[j] = 1.0 / math.Sqrt(float64(dim))
	}

	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, dim)
		for _, row := range rows {
			proj := dot(row, v)
			for j, x := range row {
				next[j] += proj * x
			}
		}
		norm := vectorNorm(next)
		if norm < 1e-12 {
			break
		}
		for j := range next {
			next[j] /= norm
		}
		v = next
	}
	return v
}

// deflate removes the projection of rows onto component pc, so the
// next power-iteration call converges toward the next-dominant
// direction instead of the one already extracted.
func deflate(rows [][]float64, pc []float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		proj := dot(row, pc)
		newRow := make([]float64, len(row))
		for j, x := range row {
			newRow[j] = x - proj*pc[j]
		}
		out[i] = newRow
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func vectorNorm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
