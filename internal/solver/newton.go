package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/poly"
)

const (
	// seedBoxStretch lets seeds and iterates roam slightly past the unit
	// box so roots sitting exactly on ±1 are still reachable under
	// floating error. The root filter applies the authoritative box check.
	seedBoxStretch = 1.1

	newtonMaxSteps  = 50
	newtonTolerance = 1e-12
)

// NewtonGridSolver is the default backend: fully deterministic multi-start
// Newton iteration from a tensor grid of seeds over the (slightly stretched)
// unit box. For the modest dimensions and degrees the surrogate pipeline
// produces, dense seeding plus quadratic local convergence recovers the full
// real solution set without any external machinery.
type NewtonGridSolver struct {
	// SeedsPerDim is the seed grid density; seeds total SeedsPerDim^n.
	SeedsPerDim int
}

// NewNewtonGrid returns a Newton-grid backend with the given seed density.
func NewNewtonGrid(seedsPerDim int) *NewtonGridSolver {
	if seedsPerDim < 2 {
		seedsPerDim = 2
	}
	return &NewtonGridSolver{SeedsPerDim: seedsPerDim}
}

func (s *NewtonGridSolver) Name() string { return "newton-grid" }

// Solve polishes every seed and collects the converged iterates. Duplicate
// basins yield duplicate roots; deduplication is the root filter's job.
func (s *NewtonGridSolver) Solve(ctx context.Context, sys *poly.System) ([]Solution, error) {
	if err := checkSystem(sys); err != nil {
		return nil, err
	}

	n := sys.N
	total := 1
	for i := 0; i < n; i++ {
		total *= s.SeedsPerDim
	}

	var sols []Solution
	idx := make([]int, n)
	seed := make([]float64, n)
	for p := 0; p < total; p++ {
		if p%64 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		for d := 0; d < n; d++ {
			t := float64(idx[d])/float64(s.SeedsPerDim-1)*2 - 1
			seed[d] = t * seedBoxStretch
		}
		if root, ok := Polish(sys, seed); ok {
			sols = append(sols, FromReal(root))
		}
		for d := n - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < s.SeedsPerDim {
				break
			}
			idx[d] = 0
		}
	}

	if len(sols) == 0 {
		return nil, &NonConvergenceError{Backend: s.Name(), Reason: fmt.Sprintf("no seed of %d converged", total)}
	}
	return sols, nil
}

// Polish runs damped Newton iteration on the gradient system from x0 and
// reports whether it converged to a root inside the stretched box.
func Polish(sys *poly.System, x0 []float64) ([]float64, bool) {
	n := sys.N
	x := append([]float64(nil), x0...)
	fx := make([]float64, n)
	step := mat.NewVecDense(n, nil)

	for it := 0; it < newtonMaxSteps; it++ {
		sys.Eval(x, fx)
		norm := 0.0
		for _, v := range fx {
			norm += v * v
		}
		if math.Sqrt(norm) < newtonTolerance {
			for _, v := range x {
				if math.Abs(v) > seedBoxStretch {
					return nil, false
				}
			}
			return x, true
		}

		j := sys.Jacobian(x)
		if err := step.SolveVec(j, mat.NewVecDense(n, fx)); err != nil {
			return nil, false
		}

		// Damp long steps so iterates cannot shoot far out of the box.
		stepNorm := mat.Norm(step, 2)
		scale := 1.0
		if stepNorm > 1 {
			scale = 1 / stepNorm
		}
		for d := 0; d < n; d++ {
			x[d] -= scale * step.AtVec(d)
		}
		if math.IsNaN(x[0]) || math.IsInf(x[0], 0) {
			return nil, false
		}
	}
	return nil, false
}

func checkSystem(sys *poly.System) error {
	if sys == nil || sys.N == 0 {
		return &SingularSystemError{Reason: "empty system"}
	}
	for i, p := range sys.Polys {
		if p.IsZero() {
			return &SingularSystemError{Reason: fmt.Sprintf("gradient component %d is identically zero", i)}
		}
	}
	return nil
}
