// Package basis implements the orthogonal polynomial families used to build
// the surrogate: one-dimensional value and derivative recurrences, the
// total-degree multi-index set that fixes the design-matrix shape, and exact
// conversion of basis polynomials to monomial coefficients.
package basis

import (
	"fmt"
	"math/big"
)

// Family identifies an orthogonal basis family. The family is chosen once per
// approximant and never mutated afterwards.
type Family string

const (
	Chebyshev Family = "chebyshev"
	Legendre  Family = "legendre"
)

// ParseFamily validates a basis name from configuration.
func ParseFamily(name string) (Family, error) {
	switch Family(name) {
	case Chebyshev:
		return Chebyshev, nil
	case Legendre:
		return Legendre, nil
	}
	return "", fmt.Errorf("unknown basis family %q (want %q or %q)", name, Chebyshev, Legendre)
}

// MultiIndex is an exponent vector α; the n-dimensional basis function for α
// is the product over dimensions of the 1-D functions of order α_i.
type MultiIndex []int

// Total returns Σα_i, the total degree of the index.
func (m MultiIndex) Total() int {
	t := 0
	for _, a := range m {
		t += a
	}
	return t
}

// TotalDegreeIndices enumerates the total-degree simplex {α : Σα_i ≤ degree}
// in graded lexicographic order. The ordering is deterministic and is part of
// the fit contract: column j of the design matrix is always indices[j]. The
// set has C(degree+n, n) elements, not a full tensor grid.
func TotalDegreeIndices(n, degree int) []MultiIndex {
	var out []MultiIndex
	for total := 0; total <= degree; total++ {
		out = appendWithTotal(out, make(MultiIndex, n), 0, total)
	}
	return out
}

func appendWithTotal(out []MultiIndex, cur MultiIndex, pos, remaining int) []MultiIndex {
	if pos == len(cur)-1 {
		idx := make(MultiIndex, len(cur))
		copy(idx, cur)
		idx[pos] = remaining
		return append(out, idx)
	}
	for a := remaining; a >= 0; a-- {
		cur[pos] = a
		out = appendWithTotal(out, cur, pos+1, remaining-a)
	}
	cur[pos] = 0
	return out
}

// SimplexSize returns C(degree+n, n), the number of total-degree indices.
func SimplexSize(n, degree int) int {
	// Product form avoids factorial overflow for the sizes in play.
	size := 1
	for i := 1; i <= n; i++ {
		size = size * (degree + i) / i
	}
	return size
}

// Eval evaluates the n-dimensional basis function for the multi-index at a
// normalized point: the product of the 1-D family functions per dimension.
func (f Family) Eval(idx MultiIndex, point []float64) float64 {
	v := 1.0
	for d, a := range idx {
		v *= f.eval1D(a, point[d])
	}
	return v
}

// Deriv evaluates the partial derivative of the basis function with respect
// to dimension dim at a normalized point.
func (f Family) Deriv(idx MultiIndex, dim int, point []float64) float64 {
	v := 1.0
	for d, a := range idx {
		if d == dim {
			v *= f.deriv1D(a, point[d])
		} else {
			v *= f.eval1D(a, point[d])
		}
	}
	return v
}

func (f Family) eval1D(k int, x float64) float64 {
	switch f {
	case Legendre:
		return legendreEval(k, x)
	default:
		return chebyshevEval(k, x)
	}
}

func (f Family) deriv1D(k int, x float64) float64 {
	switch f {
	case Legendre:
		return legendreDeriv(k, x)
	default:
		return chebyshevDeriv(k, x)
	}
}

// Monomial1D returns the exact monomial coefficients of the k-th 1-D basis
// polynomial, index i holding the coefficient of x^i. Coefficients are exact
// rationals so conversion of the surrogate to monomial form does not compound
// roundoff through the recurrences.
func (f Family) Monomial1D(k int) []*big.Rat {
	switch f {
	case Legendre:
		return legendreMonomial(k)
	default:
		return chebyshevMonomial(k)
	}
}
