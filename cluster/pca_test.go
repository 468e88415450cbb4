package cluster

import (
	"math"
	"testing"
)

func TestPCAReducer_PreservesLowerDimensionUnchanged(t *testing.T) {
	r := NewPCAReducer()
	vectors := []Vector{{1, 2}, {3, 4}}
	out, err := r.Reduce(vectors, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out[0]) != 5 {
		t.Fatalf("expected padded vectors of length 5, got %d", len(out[0]))
	}
}

func TestPCAReducer_SeparatesTwoLinearClusters(t *testing.T) {
	r := NewPCAReducer()
	// Two tight clusters, one near the origin and one near (10,10,10,10).
	vectors := []Vector{
		{0, 0, 0, 0}, {0.1, 0, 0.1, 0}, {-0.1, 0.1, 0, 0},
		{10, 10, 10, 10}, {10.1, 10, 10, 9.9}, {9.9, 10.1, 10, 10},
	}
	out, err := r.Reduce(vectors, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(vectors) {
		t.Fatalf("expected %d rows, got %d", len(vectors), len(out))
	}
	// The first three points should project close together, and far
	// from the last three, along the single retained component.
	firstGroupMean := (out[0][0] + out[1][0] + out[2][0]) / 3
	secondGroupMean := (out[3][0] + out[4][0] + out[5][0]) / 3
	if math.Abs(firstGroupMean-secondGroupMean) < 1 {
		t.Fatalf("expected well-separated projections, got means %f and %f", firstGroupMean, secondGroupMean)
	}
}

func TestPCAReducer_RejectsMismatchedDimensions(t *testing.T) {
	r := NewPCAReducer()
	_, err := r.Reduce([]Vector{{1, 2}, {1, 2, 3}}, 1)
	if err == nil {
		t.Fatalf("expected error for mismatched vector dimensions")
	}
}
