// Package approx builds the polynomial surrogate: design-matrix least
// squares over an orthogonal basis, residual and conditioning diagnostics,
// post-fit sparsification, and the bounded degree-escalation loop.
package approx

import (
	"math"

	"github.com/gescholt/globtim/internal/basis"
)

// Approximant is the fitted surrogate at one degree. It is recomputed
// wholesale on any degree or grid change, never patched incrementally; the
// coefficient slice is always parallel to Indices, the full total-degree
// simplex for Degree.
type Approximant struct {
	Basis   basis.Family       `json:"basis"`
	Degree  int                `json:"degree"`
	Coeffs  []float64          `json:"coeffs"`
	Indices []basis.MultiIndex `json:"-"`

	// Residual is the RMS fit residual ‖Φc−f‖₂/√m, comparable across
	// degrees and grid densities.
	Residual float64 `json:"residual"`

	// Condition is σ_max/σ_min of the design matrix.
	Condition      float64 `json:"condition"`
	IllConditioned bool    `json:"illConditioned"`

	// Provenance of the fit.
	GN                int     `json:"gn"`
	SparsifyThreshold float64 `json:"sparsifyThreshold"`

	// Coefficient counts before and after sparsification. Pruning changes
	// the effective degree of the downstream gradient system, so it is
	// recorded rather than silent.
	CoeffsBeforePrune int `json:"coeffsBeforePrune"`
	CoeffsAfterPrune  int `json:"coeffsAfterPrune"`
}

// Sparsify zeroes coefficients with magnitude below threshold. It only prunes
// the already-solved fit; it never refits. Counts are recorded on the
// approximant.
func (a *Approximant) Sparsify(threshold float64) {
	a.SparsifyThreshold = threshold
	before, after := 0, 0
	for i, c := range a.Coeffs {
		if c != 0 {
			before++
		}
		if math.Abs(c) < threshold {
			a.Coeffs[i] = 0
		}
		if a.Coeffs[i] != 0 {
			after++
		}
	}
	a.CoeffsBeforePrune = before
	a.CoeffsAfterPrune = after
}

// Eval evaluates the surrogate at a normalized point.
func (a *Approximant) Eval(x []float64) float64 {
	sum := 0.0
	for j, idx := range a.Indices {
		if a.Coeffs[j] == 0 {
			continue
		}
		sum += a.Coeffs[j] * a.Basis.Eval(idx, x)
	}
	return sum
}

// Gradient evaluates the surrogate gradient at a normalized point.
func (a *Approximant) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for j, idx := range a.Indices {
		if a.Coeffs[j] == 0 {
			continue
		}
		for d := range x {
			g[d] += a.Coeffs[j] * a.Basis.Deriv(idx, d, x)
		}
	}
	return g
}
