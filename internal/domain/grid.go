package domain

import (
	"fmt"
	"math"
)

// NodeScheme selects the one-dimensional node distribution used to build the
// tensor-product sample grid.
type NodeScheme string

const (
	// NodesChebyshev places Gauss-Lobatto points, clustered toward ±1.
	// Matches the Chebyshev basis and keeps the design matrix well
	// conditioned at higher degree.
	NodesChebyshev NodeScheme = "chebyshev"

	// NodesUniform places equally spaced points.
	NodesUniform NodeScheme = "uniform"
)

// Grid is a deterministic tensor-product sample set: GN points per dimension,
// GN^n points total, stored in normalized coordinates alongside their affine
// image under the owning Spec. Points are ordered with the last dimension
// varying fastest; ordering is part of the contract so fits are reproducible.
type Grid struct {
	Spec       *Spec
	GN         int
	Scheme     NodeScheme
	Normalized []Normalized
	Actual     []Actual
}

// NewGrid builds the sample grid for spec with gn points per dimension.
// Returns a *ConstructionError for non-positive gn or an unknown scheme.
func NewGrid(spec *Spec, gn int, scheme NodeScheme) (*Grid, error) {
	if gn <= 0 {
		return nil, &ConstructionError{Field: "GN", Reason: fmt.Sprintf("is %d, must be positive", gn)}
	}
	axis, err := axisNodes(gn, scheme)
	if err != nil {
		return nil, err
	}

	n := spec.Dimension
	total := 1
	for i := 0; i < n; i++ {
		total *= gn
	}

	g := &Grid{
		Spec:       spec,
		GN:         gn,
		Scheme:     scheme,
		Normalized: make([]Normalized, total),
		Actual:     make([]Actual, total),
	}

	idx := make([]int, n)
	for p := 0; p < total; p++ {
		pt := make(Normalized, n)
		for d := 0; d < n; d++ {
			pt[d] = axis[idx[d]]
		}
		g.Normalized[p] = pt
		g.Actual[p] = spec.ToActual(pt)

		// Odometer increment, last dimension fastest.
		for d := n - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < gn {
				break
			}
			idx[d] = 0
		}
	}
	return g, nil
}

// Len returns the total number of grid points.
func (g *Grid) Len() int { return len(g.Normalized) }

func axisNodes(gn int, scheme NodeScheme) ([]float64, error) {
	nodes := make([]float64, gn)
	switch scheme {
	case NodesChebyshev:
		if gn == 1 {
			nodes[0] = 0
			return nodes, nil
		}
		for i := 0; i < gn; i++ {
			// Gauss-Lobatto: -cos(iπ/(GN-1)), ascending from -1 to 1.
			nodes[i] = -math.Cos(math.Pi * float64(i) / float64(gn-1))
		}
		// Pin the endpoints exactly.
		nodes[0] = -1
		nodes[gn-1] = 1
	case NodesUniform:
		if gn == 1 {
			nodes[0] = 0
			return nodes, nil
		}
		for i := 0; i < gn; i++ {
			nodes[i] = -1 + 2*float64(i)/float64(gn-1)
		}
	default:
		return nil, &ConstructionError{Field: "nodeScheme", Reason: fmt.Sprintf("unknown scheme %q", scheme)}
	}
	return nodes, nil
}
