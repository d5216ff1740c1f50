package critical

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// HessianSource supplies the Hessian at a normalized point. The surrogate's
// polynomial system implements it; an objective with analytic second
// derivatives may implement it too, in which case classification runs against
// the true objective instead of the surrogate.
type HessianSource interface {
	Hessian(x []float64) *mat.SymDense
}

// Classify tags a stationary point from the eigenvalues of its Hessian:
// all eigenvalues above eigenvalueEpsilon is a minimum, all below its
// negation a maximum, mixed signs with no near-zero eigenvalue a saddle, and
// anything with an eigenvalue inside the epsilon band is degenerate. A
// degenerate point is kept and flagged, never dropped: near-singular Hessians
// mean the surrogate cannot distinguish the cases, not that the candidate is
// spurious.
func Classify(x []float64, src HessianSource, eigenvalueEpsilon float64) (Kind, []float64, error) {
	h := src.Hessian(x)

	var es mat.EigenSym
	if ok := es.Factorize(h, false); !ok {
		return Degenerate, nil, fmt.Errorf("eigendecomposition failed at %v", x)
	}
	eig := es.Values(nil)

	pos, neg := 0, 0
	for _, l := range eig {
		switch {
		case l > eigenvalueEpsilon:
			pos++
		case l < -eigenvalueEpsilon:
			neg++
		default:
			slog.Debug("Near-singular Hessian", "point", x, "eigenvalues", eig)
			return Degenerate, eig, nil
		}
	}
	switch {
	case pos == len(eig):
		return Minimum, eig, nil
	case neg == len(eig):
		return Maximum, eig, nil
	default:
		return Saddle, eig, nil
	}
}
