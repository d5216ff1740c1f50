// Package objective provides the named test objectives exposed by the CLI
// and used in validation. Functions evaluate in actual (problem) coordinates.
// Where analytic second derivatives are known they are included, so the
// classifier can run against the true objective instead of the surrogate.
package objective

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/critical"
)

// Func evaluates an objective at a point in actual coordinates.
type Func func(x []float64) float64

// StationaryPoint is a known analytic stationary point, used to validate
// recovered candidates (distance-to-reference diagnostics).
type StationaryPoint struct {
	X    []float64
	Kind critical.Kind
}

// Function is a named objective. Dim 0 means any dimension. Hess, when
// non-nil, returns the analytic Hessian in actual coordinates.
type Function struct {
	Name        string
	Description string
	Dim         int
	Eval        Func
	Hess        func(x []float64) *mat.SymDense

	// Stationary lists known stationary points inside the function's
	// reference domain, when the analytic set is known.
	Stationary []StationaryPoint

	// RefCenter/RefRange describe the reference domain the Stationary list
	// refers to.
	RefCenter []float64
	RefRange  []float64
}

var registry = map[string]Function{}

func register(f Function) {
	registry[f.Name] = f
}

// Lookup resolves a registered objective by name.
func Lookup(name string) (Function, error) {
	f, ok := registry[name]
	if !ok {
		return Function{}, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	register(sphereFunction())
	register(fivePointFunction())
	register(doubleWellFunction())
	register(compositeFunction())
}

// sphere: Σx_i², one minimum at the origin in any dimension.
func sphereFunction() Function {
	return Function{
		Name:        "sphere",
		Description: "sum of squares, single minimum at the origin",
		Dim:         0,
		Eval: func(x []float64) float64 {
			var sum float64
			for _, v := range x {
				sum += v * v
			}
			return sum
		},
		Hess: func(x []float64) *mat.SymDense {
			h := mat.NewSymDense(len(x), nil)
			for i := range x {
				h.SetSym(i, i, 2)
			}
			return h
		},
		Stationary: []StationaryPoint{{X: []float64{0, 0}, Kind: critical.Minimum}},
		RefCenter:  []float64{0, 0},
		RefRange:   []float64{1, 1},
	}
}

// fivepoint: the quartic u⁴+v⁴−u²−v²+(3/2)uv under the substitution u=2x−1,
// v=2y+1, giving five stationary points strictly inside [0,1]×[-1,0]:
// two minima, two saddles and one maximum. The cross-term weight 3/2 keeps
// every stationary Hessian nonsingular (at the saddles the xy eigenvalues
// are {4, -8}; a weight of 1 would make them {0, 8}).
func fivePointFunction() Function {
	const (
		s78 = 0.9354143466934853  // √(7/8), the minima along v = -u
		s18 = 0.35355339059327373 // √(1/8), the saddles along v = u
	)
	uv := func(x []float64) (float64, float64) {
		return 2*x[0] - 1, 2*x[1] + 1
	}
	toXY := func(u, v float64) []float64 {
		return []float64{(u + 1) / 2, (v - 1) / 2}
	}
	return Function{
		Name:        "fivepoint",
		Description: "2-D quartic with five analytic stationary points on [0,1]x[-1,0]",
		Dim:         2,
		Eval: func(x []float64) float64 {
			u, v := uv(x)
			return u*u*u*u + v*v*v*v - u*u - v*v + 1.5*u*v
		},
		Hess: func(x []float64) *mat.SymDense {
			u, v := uv(x)
			h := mat.NewSymDense(2, nil)
			// Chain rule: du/dx = dv/dy = 2.
			h.SetSym(0, 0, 4*(12*u*u-2))
			h.SetSym(1, 1, 4*(12*v*v-2))
			h.SetSym(0, 1, 4*1.5)
			return h
		},
		Stationary: []StationaryPoint{
			{X: toXY(s78, -s78), Kind: critical.Minimum},
			{X: toXY(-s78, s78), Kind: critical.Minimum},
			{X: toXY(s18, s18), Kind: critical.Saddle},
			{X: toXY(-s18, -s18), Kind: critical.Saddle},
			{X: toXY(0, 0), Kind: critical.Maximum},
		},
		RefCenter: []float64{0.5, -0.5},
		RefRange:  []float64{0.5, 0.5},
	}
}

// doublewell: u⁴/4−u²/2+v²/2, two minima at (±1,0) and a saddle at the
// origin.
func doubleWellFunction() Function {
	return Function{
		Name:        "doublewell",
		Description: "2-D double well: minima at (±1,0), saddle at the origin",
		Dim:         2,
		Eval: func(x []float64) float64 {
			u, v := x[0], x[1]
			return u*u*u*u/4 - u*u/2 + v*v/2
		},
		Hess: func(x []float64) *mat.SymDense {
			h := mat.NewSymDense(2, nil)
			h.SetSym(0, 0, 3*x[0]*x[0]-1)
			h.SetSym(1, 1, 1)
			return h
		},
		Stationary: []StationaryPoint{
			{X: []float64{-1, 0}, Kind: critical.Minimum},
			{X: []float64{1, 0}, Kind: critical.Minimum},
			{X: []float64{0, 0}, Kind: critical.Saddle},
		},
		RefCenter: []float64{0, 0},
		RefRange:  []float64{1.5, 1.5},
	}
}

// composite4d: g(x1,x2)+g(x3,x4) with g the double well. The stationary set
// is the tensor product of g's, so counts obey the product law: 9 points
// total, 4 of them min+min.
func compositeFunction() Function {
	g := func(u, v float64) float64 {
		return u*u*u*u/4 - u*u/2 + v*v/2
	}
	var stationary []StationaryPoint
	base := doubleWellFunction().Stationary
	for _, a := range base {
		for _, b := range base {
			kind := critical.Saddle
			switch {
			case a.Kind == critical.Minimum && b.Kind == critical.Minimum:
				kind = critical.Minimum
			case a.Kind == critical.Maximum && b.Kind == critical.Maximum:
				kind = critical.Maximum
			}
			stationary = append(stationary, StationaryPoint{
				X:    []float64{a.X[0], a.X[1], b.X[0], b.X[1]},
				Kind: kind,
			})
		}
	}
	return Function{
		Name:        "composite4d",
		Description: "4-D tensor sum of two double wells",
		Dim:         4,
		Eval: func(x []float64) float64 {
			return g(x[0], x[1]) + g(x[2], x[3])
		},
		Hess: func(x []float64) *mat.SymDense {
			h := mat.NewSymDense(4, nil)
			h.SetSym(0, 0, 3*x[0]*x[0]-1)
			h.SetSym(1, 1, 1)
			h.SetSym(2, 2, 3*x[2]*x[2]-1)
			h.SetSym(3, 3, 1)
			return h
		},
		Stationary: stationary,
		RefCenter:  []float64{0, 0, 0, 0},
		RefRange:   []float64{1.5, 1.5, 1.5, 1.5},
	}
}
