package solver

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/gescholt/globtim/internal/poly"
)

// MayflySolver is the alternate backend: many-seeded swarm search over the
// squared gradient norm ‖∇p(x)‖², with Newton polishing of every promising
// swarm result. It trades the Newton grid's determinism-by-enumeration for
// robustness on systems where grid seeding stalls, which is what makes it the
// retry strategy after a primary-backend failure.
type MayflySolver struct {
	Restarts int
	MaxIters int
	PopSize  int
	Seed     int64

	// meritCutoff gates which swarm results are worth polishing.
	meritCutoff float64
}

// NewMayfly returns a swarm backend with the given restart budget and seed.
func NewMayfly(restarts, maxIters, popSize int, seed int64) *MayflySolver {
	if restarts < 1 {
		restarts = 1
	}
	if popSize < 20 {
		// mayfly v0.1.0 requires a minimum population.
		popSize = 20
	}
	return &MayflySolver{
		Restarts:    restarts,
		MaxIters:    maxIters,
		PopSize:     popSize,
		Seed:        seed,
		meritCutoff: 1e-3,
	}
}

func (s *MayflySolver) Name() string { return "mayfly-polish" }

// Solve runs Restarts independent swarm searches, each with its own derived
// seed, polishes the candidates, and returns every polished root.
func (s *MayflySolver) Solve(ctx context.Context, sys *poly.System) ([]Solution, error) {
	if err := checkSystem(sys); err != nil {
		return nil, err
	}

	var sols []Solution
	for r := 0; r < s.Restarts; r++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		config := mayfly.NewDefaultConfig()
		config.ObjectiveFunc = sys.ResidualNormSq
		config.ProblemSize = sys.N
		config.MaxIterations = s.MaxIters
		config.NPop = s.PopSize
		config.LowerBound = -seedBoxStretch
		config.UpperBound = seedBoxStretch
		config.Rand = rand.New(rand.NewSource(s.Seed + int64(r)))

		result, err := mayfly.Optimize(config)
		if err != nil {
			slog.Debug("Swarm restart failed", "restart", r, "error", err)
			continue
		}

		best := result.GlobalBest.Position
		if result.GlobalBest.Cost > s.meritCutoff {
			continue
		}
		if root, ok := Polish(sys, best); ok {
			sols = append(sols, FromReal(root))
		}
	}

	if len(sols) == 0 {
		return nil, &NonConvergenceError{Backend: s.Name(), Reason: "no swarm restart produced a polishable root"}
	}
	return sols, nil
}
