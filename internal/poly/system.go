package poly

import (
	"fmt"
	"math/big"

	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/basis"
)

// FromBasis converts a basis-represented surrogate (parallel index and
// coefficient slices) into exact monomial form. Each fitted coefficient is
// lifted to an exact rational, multiplied against the exact monomial
// expansion of its basis product, and accumulated. Zero coefficients
// (including those pruned by sparsification) contribute nothing, so the
// effective degree of the result reflects the pruned surrogate.
func FromBasis(family basis.Family, indices []basis.MultiIndex, coeffs []float64) (*Polynomial, error) {
	if len(indices) != len(coeffs) {
		return nil, fmt.Errorf("index/coefficient length mismatch: %d vs %d", len(indices), len(coeffs))
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("empty coefficient set")
	}
	n := len(indices[0])
	out := New(n)
	for j, idx := range indices {
		if coeffs[j] == 0 {
			continue
		}
		// Exact: every finite float64 is a binary rational.
		c := new(big.Rat).SetFloat64(coeffs[j])
		term := NewConstant(n, big.NewRat(1, 1))
		for d, a := range idx {
			oneD := New(n)
			exps := make([]int, n)
			for pow, mc := range family.Monomial1D(a) {
				if mc.Sign() == 0 {
					continue
				}
				exps[d] = pow
				oneD.AddTerm(mc, exps)
			}
			term = term.Mul(oneD)
		}
		term.Scale(c)
		out.Add(term)
	}
	return out, nil
}

// System is the gradient system ∇p = 0 of a surrogate: n polynomials in n
// unknowns over normalized coordinates. Its common real zeros in [-1,1]^n are
// the surrogate's stationary points. Second-order partials are kept for
// Newton Jacobians and Hessian classification.
type System struct {
	N         int
	Polys     []*Polynomial
	Surrogate *Polynomial

	second [][]*Polynomial
}

// GradientSystem symbolically differentiates the surrogate with respect to
// each variable.
func GradientSystem(p *Polynomial) *System {
	n := p.Vars()
	sys := &System{N: n, Polys: make([]*Polynomial, n), Surrogate: p}
	for i := 0; i < n; i++ {
		sys.Polys[i] = p.Diff(i)
	}
	sys.second = make([][]*Polynomial, n)
	for i := 0; i < n; i++ {
		sys.second[i] = make([]*Polynomial, n)
		for j := 0; j < n; j++ {
			sys.second[i][j] = sys.Polys[i].Diff(j)
		}
	}
	return sys
}

// Eval evaluates the gradient at x, reusing dst when it has the right length.
func (s *System) Eval(x, dst []float64) []float64 {
	if len(dst) != s.N {
		dst = make([]float64, s.N)
	}
	for i, p := range s.Polys {
		dst[i] = p.Eval(x)
	}
	return dst
}

// ResidualNormSq returns ‖∇p(x)‖², the merit function minimized by the
// polishing solver backends.
func (s *System) ResidualNormSq(x []float64) float64 {
	sum := 0.0
	for _, p := range s.Polys {
		v := p.Eval(x)
		sum += v * v
	}
	return sum
}

// Jacobian evaluates the Jacobian of the gradient system at x, which is the
// Hessian of the surrogate.
func (s *System) Jacobian(x []float64) *mat.Dense {
	j := mat.NewDense(s.N, s.N, nil)
	for r := 0; r < s.N; r++ {
		for c := 0; c < s.N; c++ {
			j.Set(r, c, s.second[r][c].Eval(x))
		}
	}
	return j
}

// Hessian evaluates the surrogate Hessian at x as a symmetric matrix, ready
// for eigendecomposition. Off-diagonal entries are averaged to absorb any
// asymmetry from independent evaluation of the mixed partials.
func (s *System) Hessian(x []float64) *mat.SymDense {
	h := mat.NewSymDense(s.N, nil)
	for r := 0; r < s.N; r++ {
		for c := r; c < s.N; c++ {
			v := s.second[r][c].Eval(x)
			if c != r {
				v = (v + s.second[c][r].Eval(x)) / 2
			}
			h.SetSym(r, c, v)
		}
	}
	return h
}
