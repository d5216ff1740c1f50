package approx

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescholt/globtim/internal/basis"
	"github.com/gescholt/globtim/internal/domain"
)

func testGrid(t *testing.T, n, gn int) *domain.Grid {
	t.Helper()
	spec, err := domain.NewSpec(n, make([]float64, n), []float64{1})
	require.NoError(t, err)
	grid, err := domain.NewGrid(spec, gn, domain.NodesChebyshev)
	require.NoError(t, err)
	return grid
}

func sampleOnGrid(grid *domain.Grid, f func([]float64) float64) []float64 {
	out := make([]float64, grid.Len())
	for i, pt := range grid.Normalized {
		out[i] = f(pt)
	}
	return out
}

func TestFitReconstructsPolynomialExactly(t *testing.T) {
	// A quadratic objective is reproduced exactly at degree >= 2.
	grid := testGrid(t, 2, 8)
	samples := sampleOnGrid(grid, func(x []float64) float64 {
		return 2*x[0]*x[0] + x[1]*x[1] - x[0] + 0.5
	})

	a, err := Fit(grid, samples, basis.Chebyshev, 3, 1e6)
	require.NoError(t, err)
	assert.Less(t, a.Residual, 1e-10)
	assert.False(t, a.IllConditioned)

	for _, x := range [][]float64{{0, 0}, {0.5, -0.3}, {-1, 1}} {
		want := 2*x[0]*x[0] + x[1]*x[1] - x[0] + 0.5
		assert.InDelta(t, want, a.Eval(x), 1e-9)
	}
}

func TestFitResidualDecreasesWithDegree(t *testing.T) {
	// A transcendental objective: residual shrinks as degree grows on a
	// fixed grid.
	grid := testGrid(t, 1, 16)
	samples := sampleOnGrid(grid, func(x []float64) float64 {
		return math.Exp(x[0]) * math.Sin(3*x[0])
	})

	prev := math.Inf(1)
	for _, degree := range []int{2, 4, 6, 8} {
		a, err := Fit(grid, samples, basis.Chebyshev, degree, 0)
		require.NoError(t, err)
		assert.Less(t, a.Residual, prev, "degree %d", degree)
		prev = a.Residual
	}
}

func TestFitLegendre(t *testing.T) {
	grid := testGrid(t, 1, 10)
	samples := sampleOnGrid(grid, func(x []float64) float64 {
		return x[0]*x[0]*x[0] - x[0]
	})
	a, err := Fit(grid, samples, basis.Legendre, 3, 0)
	require.NoError(t, err)
	assert.Less(t, a.Residual, 1e-12)
	assert.InDelta(t, 0.5*0.5*0.5-0.5, a.Eval([]float64{0.5}), 1e-10)
}

func TestFitUnderDeterminedGrid(t *testing.T) {
	grid := testGrid(t, 2, 3)
	samples := make([]float64, grid.Len())

	_, err := Fit(grid, samples, basis.Chebyshev, 5, 0)
	require.Error(t, err)
	var ce *domain.ConstructionError
	assert.True(t, errors.As(err, &ce), "want a construction error, got %v", err)
}

func TestFitSampleCountMismatch(t *testing.T) {
	grid := testGrid(t, 2, 4)
	_, err := Fit(grid, make([]float64, 3), basis.Chebyshev, 2, 0)
	assert.Error(t, err)
}

func TestFitGradientMatchesFiniteDifference(t *testing.T) {
	grid := testGrid(t, 2, 8)
	samples := sampleOnGrid(grid, func(x []float64) float64 {
		return x[0]*x[0] - x[0]*x[1] + 0.5*x[1]*x[1]
	})
	a, err := Fit(grid, samples, basis.Chebyshev, 2, 0)
	require.NoError(t, err)

	const h = 1e-6
	x := []float64{0.2, -0.3}
	g := a.Gradient(x)
	for d := range x {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[d] += h
		xm[d] -= h
		fd := (a.Eval(xp) - a.Eval(xm)) / (2 * h)
		assert.InDelta(t, fd, g[d], 1e-5, "dimension %d", d)
	}
}

func TestSparsifyRecordsCounts(t *testing.T) {
	a := &Approximant{
		Basis:   basis.Chebyshev,
		Degree:  2,
		Coeffs:  []float64{1, 1e-12, 0.5, -1e-15, 0, 0.25},
		Indices: basis.TotalDegreeIndices(2, 2),
	}
	a.Sparsify(1e-9)

	assert.Equal(t, 5, a.CoeffsBeforePrune)
	assert.Equal(t, 3, a.CoeffsAfterPrune)
	assert.Equal(t, 1e-9, a.SparsifyThreshold)
	assert.Zero(t, a.Coeffs[1])
	assert.Zero(t, a.Coeffs[3])
	assert.Equal(t, 0.5, a.Coeffs[2])
}

func TestFitFlagsIllConditioned(t *testing.T) {
	grid := testGrid(t, 1, 12)
	samples := sampleOnGrid(grid, func(x []float64) float64 { return x[0] })

	// Any finite fit violates an absurdly tight bound.
	a, err := Fit(grid, samples, basis.Chebyshev, 8, 1.0)
	require.NoError(t, err)
	assert.True(t, a.IllConditioned)
	assert.Greater(t, a.Condition, 1.0)
}
