// Package poly provides exact multivariate polynomials in monomial form.
// Coefficients are big.Rat so that converting a basis-represented surrogate
// into the gradient system does not compound floating error through the
// recurrence expansions.
package poly

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Term is a single monomial c · x^e.
type Term struct {
	Coeff *big.Rat
	Exps  []int
}

// Polynomial is a sparse multivariate polynomial over n variables.
// The zero polynomial has no terms.
type Polynomial struct {
	n     int
	terms map[string]*Term
}

// New returns the zero polynomial in n variables.
func New(n int) *Polynomial {
	return &Polynomial{n: n, terms: make(map[string]*Term)}
}

// NewConstant returns the constant polynomial c in n variables.
func NewConstant(n int, c *big.Rat) *Polynomial {
	p := New(n)
	p.AddTerm(c, make([]int, n))
	return p
}

// Vars returns the number of variables.
func (p *Polynomial) Vars() int { return p.n }

// NumTerms returns the number of nonzero monomials.
func (p *Polynomial) NumTerms() int { return len(p.terms) }

// IsZero reports whether the polynomial has no nonzero terms.
func (p *Polynomial) IsZero() bool { return len(p.terms) == 0 }

func expKey(exps []int) string {
	var b strings.Builder
	for i, e := range exps {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

// AddTerm accumulates c · x^e into the polynomial. Terms that cancel to zero
// are removed so NumTerms stays meaningful.
func (p *Polynomial) AddTerm(c *big.Rat, exps []int) {
	if c.Sign() == 0 {
		return
	}
	key := expKey(exps)
	if t, ok := p.terms[key]; ok {
		t.Coeff.Add(t.Coeff, c)
		if t.Coeff.Sign() == 0 {
			delete(p.terms, key)
		}
		return
	}
	e := make([]int, len(exps))
	copy(e, exps)
	p.terms[key] = &Term{Coeff: new(big.Rat).Set(c), Exps: e}
}

// Add accumulates q into p.
func (p *Polynomial) Add(q *Polynomial) {
	for _, t := range q.terms {
		p.AddTerm(t.Coeff, t.Exps)
	}
}

// Scale multiplies every coefficient by c.
func (p *Polynomial) Scale(c *big.Rat) {
	if c.Sign() == 0 {
		p.terms = make(map[string]*Term)
		return
	}
	for _, t := range p.terms {
		t.Coeff.Mul(t.Coeff, c)
	}
}

// Mul returns the product p·q.
func (p *Polynomial) Mul(q *Polynomial) *Polynomial {
	out := New(p.n)
	exps := make([]int, p.n)
	for _, a := range p.terms {
		for _, b := range q.terms {
			for i := range exps {
				exps[i] = a.Exps[i] + b.Exps[i]
			}
			c := new(big.Rat).Mul(a.Coeff, b.Coeff)
			out.AddTerm(c, exps)
		}
	}
	return out
}

// Diff returns ∂p/∂x_dim, computed term-wise: d/dx of x^a is a·x^(a−1).
func (p *Polynomial) Diff(dim int) *Polynomial {
	out := New(p.n)
	exps := make([]int, p.n)
	for _, t := range p.terms {
		a := t.Exps[dim]
		if a == 0 {
			continue
		}
		copy(exps, t.Exps)
		exps[dim] = a - 1
		c := new(big.Rat).Mul(t.Coeff, big.NewRat(int64(a), 1))
		out.AddTerm(c, exps)
	}
	return out
}

// Eval evaluates the polynomial at a float point.
func (p *Polynomial) Eval(x []float64) float64 {
	sum := 0.0
	for _, t := range p.terms {
		v, _ := t.Coeff.Float64()
		for d, e := range t.Exps {
			if e > 0 {
				v *= math.Pow(x[d], float64(e))
			}
		}
		sum += v
	}
	return sum
}

// Degree returns the total degree, or -1 for the zero polynomial.
func (p *Polynomial) Degree() int {
	deg := -1
	for _, t := range p.terms {
		d := 0
		for _, e := range t.Exps {
			d += e
		}
		if d > deg {
			deg = d
		}
	}
	return deg
}

// Terms returns the monomials in graded lexicographic order. The ordering is
// deterministic so downstream solvers and tests see a stable system.
func (p *Polynomial) Terms() []Term {
	out := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, Term{Coeff: new(big.Rat).Set(t.Coeff), Exps: append([]int(nil), t.Exps...)})
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := 0, 0
		for _, e := range out[i].Exps {
			di += e
		}
		for _, e := range out[j].Exps {
			dj += e
		}
		if di != dj {
			return di < dj
		}
		for k := range out[i].Exps {
			if out[i].Exps[k] != out[j].Exps[k] {
				return out[i].Exps[k] > out[j].Exps[k]
			}
		}
		return false
	})
	return out
}

// String renders the polynomial in sorted term order, for logs and tests.
func (p *Polynomial) String() string {
	if p.IsZero() {
		return "0"
	}
	var b strings.Builder
	for i, t := range p.Terms() {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(t.Coeff.RatString())
		for d, e := range t.Exps {
			if e == 0 {
				continue
			}
			b.WriteString("*x")
			b.WriteString(strconv.Itoa(d))
			if e > 1 {
				b.WriteByte('^')
				b.WriteString(strconv.Itoa(e))
			}
		}
	}
	return b.String()
}
