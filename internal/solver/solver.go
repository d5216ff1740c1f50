// Package solver defines the pluggable root-solving capability consumed by
// the critical-point pipeline. The pipeline only constructs gradient systems
// and filters solution sets; how the common zeros are found is a backend
// concern, so alternate strategies (homotopy continuation behind an external
// binding, seeded local polishing, swarm search) can be swapped without
// touching the core.
package solver

import (
	"context"
	"time"

	"github.com/gescholt/globtim/internal/poly"
)

// Solution is one (possibly complex) solution vector of the polynomial
// system. Real solutions carry negligible imaginary parts; the root filter
// decides what negligible means.
type Solution []complex128

// Solver finds the solution set of an n-equation, n-unknown polynomial
// system. Implementations must honor context cancellation; a cancelled solve
// returns ctx.Err() and whatever it has is discarded by the caller. Solution
// order is not part of the contract; callers canonicalize.
type Solver interface {
	// Name identifies the backend strategy in logs and diagnostics.
	Name() string

	// Solve returns the solutions found for the system.
	Solve(ctx context.Context, sys *poly.System) ([]Solution, error)
}

// NonConvergenceError reports that a backend failed to converge on the
// system. It is retryable with an alternate strategy.
type NonConvergenceError struct {
	Backend string
	Reason  string
}

func (e *NonConvergenceError) Error() string {
	return "solver non-convergence (" + e.Backend + "): " + e.Reason
}

func (e *NonConvergenceError) Is(target error) bool {
	_, ok := target.(*NonConvergenceError)
	return ok
}

// SingularSystemError reports a structurally singular system (e.g. an
// identically zero gradient component from an over-pruned surrogate).
type SingularSystemError struct {
	Reason string
}

func (e *SingularSystemError) Error() string {
	return "singular polynomial system: " + e.Reason
}

func (e *SingularSystemError) Is(target error) bool {
	_, ok := target.(*SingularSystemError)
	return ok
}

// Real converts a solution's real parts to a float vector.
func (s Solution) Real() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = real(c)
	}
	return out
}

// FromReal wraps a real vector as a Solution.
func FromReal(x []float64) Solution {
	out := make(Solution, len(x))
	for i, v := range x {
		out[i] = complex(v, 0)
	}
	return out
}

// solveWithTimeout runs one backend attempt under an optional timeout,
// propagating cancellation from the parent context.
func solveWithTimeout(ctx context.Context, s Solver, sys *poly.System, timeout time.Duration) ([]Solution, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		sols []Solution
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		sols, err := s.Solve(ctx, sys)
		ch <- outcome{sols, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-ch:
		return o.sols, o.err
	}
}
