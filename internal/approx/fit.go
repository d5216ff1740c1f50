package approx

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/basis"
	"github.com/gescholt/globtim/internal/domain"
)

// rankCutoff is the relative singular-value threshold below which a direction
// is treated as numerically rank deficient and excluded from the solve.
const rankCutoff = 1e-14

// Fit solves the least-squares problem min ‖Φc − f‖₂ for the surrogate
// coefficients. Φ has one row per grid point and one column per total-degree
// multi-index. The solve runs through a thin SVD so the condition number
// falls out of the singular values; an ill-conditioned matrix is a warning on
// the approximant, not an error.
//
// Returns a *domain.ConstructionError when the grid cannot support the
// requested degree (GN < degree+1 per dimension leaves the system
// under-determined).
func Fit(grid *domain.Grid, samples []float64, family basis.Family, degree int, conditionBound float64) (*Approximant, error) {
	if degree < 0 {
		return nil, &domain.ConstructionError{Field: "degree", Reason: fmt.Sprintf("is %d, must be non-negative", degree)}
	}
	if grid.GN < degree+1 {
		return nil, &domain.ConstructionError{
			Field:  "GN",
			Reason: fmt.Sprintf("is %d, need at least %d nodes per dimension for degree %d", grid.GN, degree+1, degree),
		}
	}
	if len(samples) != grid.Len() {
		return nil, fmt.Errorf("sample count %d does not match grid size %d", len(samples), grid.Len())
	}

	n := grid.Spec.Dimension
	indices := basis.TotalDegreeIndices(n, degree)
	m, k := grid.Len(), len(indices)
	if m < k {
		return nil, &domain.ConstructionError{
			Field:  "GN",
			Reason: fmt.Sprintf("%d grid points cannot determine %d coefficients at degree %d", m, k, degree),
		}
	}

	phi := mat.NewDense(m, k, nil)
	for i := 0; i < m; i++ {
		pt := grid.Normalized[i]
		for j := 0; j < k; j++ {
			phi.Set(i, j, family.Eval(indices[j], pt))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(phi, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization of %dx%d design matrix failed", m, k)
	}
	sv := svd.Values(nil)

	condition := math.Inf(1)
	if sv[len(sv)-1] > 0 {
		condition = sv[0] / sv[len(sv)-1]
	}

	// Minimum-norm solve c = V Σ⁻¹ Uᵀ f, truncating numerically
	// rank-deficient directions.
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	f := mat.NewVecDense(m, samples)
	utf := mat.NewVecDense(k, nil)
	utf.MulVec(u.T(), f)

	scaled := mat.NewVecDense(k, nil)
	for j := 0; j < k; j++ {
		if sv[j] > sv[0]*rankCutoff {
			scaled.SetVec(j, utf.AtVec(j)/sv[j])
		}
	}
	c := mat.NewVecDense(k, nil)
	c.MulVec(&v, scaled)

	// RMS residual so values are comparable across degrees and grids.
	pred := mat.NewVecDense(m, nil)
	pred.MulVec(phi, c)
	var ss float64
	for i := 0; i < m; i++ {
		d := pred.AtVec(i) - samples[i]
		ss += d * d
	}
	residual := math.Sqrt(ss / float64(m))

	a := &Approximant{
		Basis:     family,
		Degree:    degree,
		Coeffs:    append([]float64(nil), c.RawVector().Data...),
		Indices:   indices,
		Residual:  residual,
		Condition: condition,
		GN:        grid.GN,
	}
	a.CoeffsBeforePrune = countNonzero(a.Coeffs)
	a.CoeffsAfterPrune = a.CoeffsBeforePrune

	if conditionBound > 0 && condition > conditionBound {
		a.IllConditioned = true
		slog.Warn("Ill-conditioned design matrix",
			"degree", degree,
			"gn", grid.GN,
			"condition", condition,
			"bound", conditionBound,
		)
	}

	slog.Debug("Least-squares fit complete",
		"degree", degree,
		"rows", m,
		"cols", k,
		"residual", residual,
		"condition", condition,
	)
	return a, nil
}

func countNonzero(c []float64) int {
	n := 0
	for _, v := range c {
		if v != 0 {
			n++
		}
	}
	return n
}
